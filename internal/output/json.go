package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/ghreport/internal/pipeline"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// jsonOutput wraps the digest with fields derived for consumers.
type jsonOutput struct {
	*pipeline.Digest
	Partial bool `json:"partial"`
}

// Format encodes the whole digest.
func (f *JSONFormatter) Format(d *pipeline.Digest, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(jsonOutput{Digest: d, Partial: d.Summary.Partial()})
}
