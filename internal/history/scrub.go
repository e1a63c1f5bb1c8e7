package history

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// volatileKeys are dropped from JSON documents before diffing.
var volatileKeys = map[string]bool{
	"expiry_time": true,
	"finishedAt":  true,
}

// lineURLQuery matches a URL and everything after its query separator on a line.
var lineURLQuery = regexp.MustCompile(`(https?://\S+?)\?.*`)

// Scrub removes volatile content from an output file so that two scans of
// unchanged content compare equal. JSON documents lose their expiry_time
// and finishedAt keys and the query strings of http(s) URLs, and are
// re-indented. Anything else has URL query strings stripped line by line.
func Scrub(data []byte) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err == nil && !dec.More() {
		if out, err := json.MarshalIndent(scrubValue(v), "", "  "); err == nil {
			return string(out)
		}
	}
	return scrubLines(string(data))
}

func scrubValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if volatileKeys[k] {
				continue
			}
			out[k] = scrubValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = scrubValue(val)
		}
		return out
	case string:
		return stripQuery(t)
	default:
		return v
	}
}

// stripQuery removes everything from the first "?" of an http(s) URL.
func stripQuery(s string) string {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return s
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}

func scrubLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = lineURLQuery.ReplaceAllString(line, "$1")
	}
	return strings.Join(lines, "\n")
}
