package domain

import (
	"encoding/json"
	"strings"
)

// ImageFieldKind — вариант сырого поля изображений.
type ImageFieldKind uint8

const (
	ImageFieldNull ImageFieldKind = iota
	ImageFieldText                // строка: URL или JSON (массив/строка)
	ImageFieldList                // массив строк
)

// Размеры списков изображений для разных мест витрины.
const (
	GridMaxImages     = 3
	FeaturedMaxImages = 1
	HeroMaxImages     = 1
)

// ImageField — поле изображений в том виде, в котором оно пришло из хранилища.
// Хранилище исторически отдаёт и JSON-строки, и голые URL, и массивы.
type ImageField struct {
	kind ImageFieldKind
	text string
	list []string
}

func NullImageField() ImageField {
	return ImageField{kind: ImageFieldNull}
}

func ImageFieldFromText(text string) ImageField {
	return ImageField{kind: ImageFieldText, text: text}
}

func ImageFieldFromList(list []string) ImageField {
	if list == nil {
		return NullImageField()
	}
	return ImageField{kind: ImageFieldList, list: list}
}

// ImageFieldFromValue строит поле из значения неизвестного типа. Неподдерживаемые
// типы превращаются в Null.
func ImageFieldFromValue(v any) ImageField {
	switch t := v.(type) {
	case nil:
		return NullImageField()
	case string:
		return ImageFieldFromText(t)
	case *string:
		if t == nil {
			return NullImageField()
		}
		return ImageFieldFromText(*t)
	case []byte:
		if t == nil {
			return NullImageField()
		}
		return ImageFieldFromText(string(t))
	case []string:
		return ImageFieldFromList(t)
	case []any:
		list := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return ImageFieldFromList(list)
	default:
		return NullImageField()
	}
}

func (f ImageField) Kind() ImageFieldKind {
	return f.kind
}

// IsNull сообщает, что поле отсутствует.
func (f ImageField) IsNull() bool {
	return f.kind == ImageFieldNull
}

// NormalizeImages превращает сырое поле в упорядоченный список непустых URL
// длиной не больше max (max <= 0 — без ограничения). Никогда не паникует:
// нераспознанный ввод либо становится одним элементом, либо даёт пустой список.
func NormalizeImages(field ImageField, max int) []string {
	var out []string

	switch field.kind {
	case ImageFieldText:
		out = parseImageText(field.text)
	case ImageFieldList:
		out = cleanImages(field.list)
	}

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	if out == nil {
		out = []string{}
	}

	return out
}

func parseImageText(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return []string{text}
	}

	switch v := decoded.(type) {
	case nil:
		return nil
	case string:
		return cleanImages([]string{v})
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return cleanImages(list)
	default:
		// число, объект, bool: считаем, что это не JSON, а сам URL
		return []string{text}
	}
}

func cleanImages(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
