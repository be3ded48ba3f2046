package report

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/gcbaptista/go-rank-compare/model"
)

// JSON writes the report as indented JSON. Undefined metrics are null.
func JSON(w io.Writer, r *model.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// DecodeJSON reads a report written by JSON.
func DecodeJSON(rd io.Reader) (*model.Report, error) {
	var r model.Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
