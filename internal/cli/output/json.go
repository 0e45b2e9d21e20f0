package output

import (
	"encoding/json"
	"io"
	"reflect"
)

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

// Format writes data as indented JSON without HTML escaping. A nil slice
// is written as an empty array.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice && v.IsNil() {
		data = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
