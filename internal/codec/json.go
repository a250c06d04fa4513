package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scalefx/hubsync/internal/domain"
)

// SendJSON sends cmd with the console's --json flag appended and decodes
// the first balanced JSON value found in the response. Absence of JSON or
// a parse failure returns domain.ErrNoJSON; callers fall back to text
// pattern matching rather than failing.
func (c *Codec) SendJSON(cmd string, policy WaitPolicy) (map[string]any, error) {
	resp, err := c.Send(cmd+" --json", policy)
	if err != nil {
		return nil, err
	}
	if resp.Empty() {
		return nil, domain.ErrNoResponse
	}
	return resp.JSON()
}

// JSON extracts and decodes the first balanced JSON object in the response
func (r Response) JSON() (map[string]any, error) {
	region, ok := ExtractJSON(string(r.raw))
	if !ok {
		return nil, domain.ErrNoJSON
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(region), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoJSON, err)
	}
	return obj, nil
}

// JSONArray extracts and decodes the first balanced JSON array in the response
func (r Response) JSONArray() ([]any, error) {
	region, ok := ExtractJSON(string(r.raw))
	if !ok {
		return nil, domain.ErrNoJSON
	}

	var arr []any
	if err := json.Unmarshal([]byte(region), &arr); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoJSON, err)
	}
	return arr, nil
}

// ExtractJSON scans text for the first balanced {...} or [...] region.
// Responses routinely carry prompt characters and log lines around the
// JSON value, so the whole text is never assumed to be JSON. String
// literals are honored while tracking depth, so braces inside values do
// not unbalance the scan.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	close := byte('}')
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// String pulls a string field out of a decoded JSON object
func String(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

// Int pulls an integer field out of a decoded JSON object. JSON numbers
// decode as float64; non-numeric values return 0.
func Int(obj map[string]any, key string) int {
	if v, ok := obj[key].(float64); ok {
		return int(v)
	}
	return 0
}

// DefaultWait is the round-trip window for ordinary console commands
var DefaultWait = WaitFixed(500 * time.Millisecond)

// ListWait is the longer window used for directory listings, which the
// device streams slowly on large folders
var ListWait = WaitFixed(time.Second)
