package verify

import (
	"encoding/json"
	"io"
)

// FormatJSON writes result as compact JSON.
func FormatJSON(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
