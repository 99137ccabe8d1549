package guard

import (
	"reflect"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/security"
)

// sanitizeBody cleans string fields one level deep: top-level strings and
// strings inside top-level slices. Nested objects are left untouched.
// Fields named in html keep safe markup via SanitizeHTML.
func sanitizeBody(body any, html map[string]bool) any {
	switch b := body.(type) {
	case map[string]any:
		for k, v := range b {
			b[k] = sanitizeValue(v, html[k])
		}
		return b
	case nil:
		return nil
	}

	rv := reflect.ValueOf(body)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return body
	}
	sanitizeStruct(rv.Elem(), html)
	return body
}

func sanitizeValue(v any, keepHTML bool) any {
	switch t := v.(type) {
	case string:
		return clean(t, keepHTML)
	case []any:
		for i, item := range t {
			if s, ok := item.(string); ok {
				t[i] = clean(s, keepHTML)
			}
		}
		return t
	default:
		return v
	}
}

func sanitizeStruct(v reflect.Value, html map[string]bool) {
	typ := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		name := strings.SplitN(typ.Field(i).Tag.Get("json"), ",", 2)[0]
		keepHTML := html[name]

		switch field.Kind() {
		case reflect.String:
			field.SetString(clean(field.String(), keepHTML))
		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				item := field.Index(j)
				item.SetString(clean(item.String(), keepHTML))
			}
		}
	}
}

func clean(s string, keepHTML bool) string {
	if keepHTML {
		return security.SanitizeHTML(strings.TrimSpace(s))
	}
	return security.SanitizeString(s)
}
