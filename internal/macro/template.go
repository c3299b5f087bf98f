package macro

import (
	"fmt"
	"strings"
)

// Synthetic placeholders available to every template on top of the record fields
const (
	FieldProficiency = "proficiency"
	FieldAdvOrDisadv = "adv_or_disadv"
)

// TemplateError describes why a template could not be expanded
type TemplateError struct {
	Field  string
	Reason string
}

func (e *TemplateError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s `%s`", e.Reason, e.Field)
}

// Expand substitutes {field} placeholders from a closed set of fields.
// {{ and }} produce literal braces. Unknown fields are rejected.
func Expand(template string, fields map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch ch {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}

			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", &TemplateError{Reason: "unterminated placeholder"}
			}

			name := template[i+1 : i+1+end]
			value, ok := fields[name]
			if !ok {
				return "", &TemplateError{Field: name, Reason: "unknown field"}
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &TemplateError{Reason: "single '}' in template"}
		default:
			b.WriteByte(ch)
		}
	}

	return b.String(), nil
}
