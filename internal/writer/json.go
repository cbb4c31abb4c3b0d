package writer

import (
	"encoding/json"
	"io"
)

// WriteJSON writes doc to path as a single JSON document with no field
// filtering.
func WriteJSON(path string, doc any) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(doc)
	})
}
