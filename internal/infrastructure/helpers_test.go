package infrastructure

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMIMEMapping(t *testing.T) {
	for _, mime := range []string{"image/jpeg", "image/png", "image/webp"} {
		ext, err := GetExtensionFromMIME(mime)
		require.NoError(t, err)

		back, err := GetMIMEFromExtension(ext)
		require.NoError(t, err)
		assert.Equal(t, mime, back)
	}

	_, err := GetExtensionFromMIME("image/gif")
	assert.True(t, errors.Is(err, e.ErrUnsupportedMediaType))

	_, err = GetMIMEFromExtension(".gif")
	assert.True(t, errors.Is(err, e.ErrUnsupportedMediaType))
}
