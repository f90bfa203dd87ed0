package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields cuerpo del webhook entrante tal como llega (JSON) o normalizado desde la query string.
type Fields map[string]any

// FieldsFromQuery mapea los parámetros de un GET a la misma forma que un cuerpo JSON:
// tags separadas por coma y data parseada como JSON (si no parsea queda el texto crudo).
func FieldsFromQuery(q map[string]string) Fields {
	f := make(Fields, len(q))
	for k, v := range q {
		f[k] = v
	}
	if s, ok := f["tags"].(string); ok {
		f["tags"] = splitTags(s)
	}
	if s, ok := f["data"].(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			f["data"] = parsed
		}
	}
	return f
}

// String valor textual del campo, recortado. Números se formatean; el resto queda vacío.
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Decimal valor numérico del campo; texto no numérico o negativo da cero.
func (f Fields) Decimal(key string) decimal.Decimal {
	var d decimal.Decimal
	switch v := f[key].(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case json.Number:
		d, _ = decimal.NewFromString(v.String())
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		d = parsed
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Tags lista de etiquetas: arreglo JSON o texto separado por comas.
func (f Fields) Tags() []string {
	switch v := f["tags"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitTags(v)
	default:
		return nil
	}
}

// DataText representación del payload auxiliar: texto crudo o JSON serializado. Vacío si no hay.
func (f Fields) DataText() string {
	v, ok := f["data"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// Clone copia superficial.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func splitTags(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
