// Package output renders result values to their final wire form: JSON for
// machine consumption, or a commented-YAML variant for humans that prefixes
// a short header built from the result's context fields (spec §6
// "Outputs").
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format selects the rendering produced by Render.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Header supplies the lines rendered into the commented preamble of a YAML
// document (spec §6 "YAML output prefixes a contextual header comment
// block"). Empty fields are omitted.
type Header struct {
	Title       string
	AccountID   string
	ScorecardID string
	ScoreID     string
	DateRange   string
}

// lines returns the non-empty header fields, in a fixed display order.
func (h Header) lines() []string {
	var lines []string
	if h.Title != "" {
		lines = append(lines, h.Title)
	}
	if h.AccountID != "" {
		lines = append(lines, "account: "+h.AccountID)
	}
	if h.ScorecardID != "" {
		lines = append(lines, "scorecard: "+h.ScorecardID)
	}
	if h.ScoreID != "" {
		lines = append(lines, "score: "+h.ScoreID)
	}
	if h.DateRange != "" {
		lines = append(lines, "date range: "+h.DateRange)
	}
	return lines
}

// Render serializes v in the requested format. For FormatYAML, header (if
// non-zero) is rendered as a leading comment block.
func Render(v any, format Format, header Header) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("output: render json: %w", err)
		}
		return b, nil
	case FormatYAML:
		body, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("output: render yaml: %w", err)
		}
		var buf bytes.Buffer
		for _, line := range header.lines() {
			buf.WriteString("# ")
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(body)
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("output: render: unknown format %q", format)
	}
}
