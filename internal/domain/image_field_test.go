package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImages(t *testing.T) {
	tests := []struct {
		name  string
		field ImageField
		max   int
		want  []string
	}{
		{"null", NullImageField(), 3, []string{}},
		{"empty text", ImageFieldFromText(""), 3, []string{}},
		{"blank text", ImageFieldFromText("   "), 3, []string{}},
		{"bare url", ImageFieldFromText(" https://cdn.example/a.jpg "), 3, []string{"https://cdn.example/a.jpg"}},
		{"json array", ImageFieldFromText(`["a","b"]`), 3, []string{"a", "b"}},
		{"json array truncated", ImageFieldFromText(`["a","b","c","d"]`), 3, []string{"a", "b", "c"}},
		{"json array with junk", ImageFieldFromText(`["a", "", 5, null, " b "]`), 3, []string{"a", "b"}},
		{"json string", ImageFieldFromText(`"https://cdn.example/x.png"`), 3, []string{"https://cdn.example/x.png"}},
		{"json null", ImageFieldFromText(`null`), 3, []string{}},
		{"broken json", ImageFieldFromText(`"broken json`), 3, []string{`"broken json`}},
		{"broken array", ImageFieldFromText(`["a",`), 3, []string{`["a",`}},
		{"json number", ImageFieldFromText(`42`), 3, []string{"42"}},
		{"native list", ImageFieldFromList([]string{"a", "b"}), 3, []string{"a", "b"}},
		{"native list cleaned", ImageFieldFromList([]string{" ", "a", ""}), 3, []string{"a"}},
		{"nil list", ImageFieldFromList(nil), 3, []string{}},
		{"featured max", ImageFieldFromText(`["a","b"]`), FeaturedMaxImages, []string{"a"}},
		{"no limit", ImageFieldFromList([]string{"a", "b", "c", "d"}), 0, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				got := NormalizeImages(tt.field, tt.max)
				assert.Equal(t, tt.want, got)
				if tt.max > 0 {
					assert.LessOrEqual(t, len(got), tt.max)
				}
			})
		})
	}
}

func TestNormalizeImagesIsDeterministic(t *testing.T) {
	f := ImageFieldFromText(`["x","y","z"]`)
	assert.Equal(t, NormalizeImages(f, 2), NormalizeImages(f, 2))
}

func TestImageFieldFromValue(t *testing.T) {
	s := `["a"]`
	var nilStr *string

	assert.Equal(t, ImageFieldNull, ImageFieldFromValue(nil).Kind())
	assert.Equal(t, ImageFieldNull, ImageFieldFromValue(nilStr).Kind())
	assert.Equal(t, ImageFieldNull, ImageFieldFromValue(3.14).Kind())
	assert.Equal(t, ImageFieldText, ImageFieldFromValue(&s).Kind())
	assert.Equal(t, ImageFieldText, ImageFieldFromValue([]byte(s)).Kind())
	assert.Equal(t, ImageFieldList, ImageFieldFromValue([]string{"a"}).Kind())

	assert.Equal(t, []string{"a", "b"}, NormalizeImages(ImageFieldFromValue([]any{"a", 1, "b"}), 3))
	assert.Equal(t, []string{"a"}, NormalizeImages(ImageFieldFromValue(&s), 3))
}
