package renderer

import (
	"encoding/json"
	"strings"
)

const debugBodyLimit = 64 << 10

// markupPaths are the JSON locations the rendering service has used for the chart.
var markupPaths = [][]string{
	{"chart"},
	{"svg"},
	{"chart_svg"},
	{"chartSvg"},
	{"data", "chart"},
	{"data", "svg"},
	{"data", "chart_svg"},
	{"result", "chart"},
}

var escapeReplacer = strings.NewReplacer(
	`\"`, `"`,
	`\/`, `/`,
	`\n`, "\n",
	`\t`, "\t",
	`\u003c`, "<",
	`\u003e`, ">",
	`\u0026`, "&",
)

// ExtractMarkup finds SVG markup in a rendering response: a raw SVG body,
// then well-known JSON fields, then a scan of the unescaped text.
func ExtractMarkup(resp *Response) (string, bool) {
	if resp == nil || len(resp.Body) == 0 {
		return "", false
	}
	text := strings.TrimSpace(string(resp.Body))

	if isRawMarkup(text, resp.ContentType) {
		return text, true
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body, &doc); err == nil {
		for _, path := range markupPaths {
			if s, ok := lookup(doc, path); ok && strings.Contains(s, "<svg") {
				return strings.TrimSpace(s), true
			}
		}
	}

	return scanForMarkup(escapeReplacer.Replace(text))
}

// DebugPayload is what gets stored when a response carried no markup.
func DebugPayload(resp *Response) json.RawMessage {
	record := map[string]any{}
	if resp != nil {
		body := string(resp.Body)
		truncated := false
		if len(body) > debugBodyLimit {
			body = body[:debugBodyLimit]
			truncated = true
		}
		record["status"] = resp.StatusCode
		record["content_type"] = resp.ContentType
		record["body"] = strings.ToValidUTF8(body, "")
		record["truncated"] = truncated
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

func isRawMarkup(text, contentType string) bool {
	if strings.HasPrefix(text, "<svg") {
		return true
	}
	if strings.HasPrefix(text, "<?xml") && strings.Contains(text, "<svg") {
		return true
	}
	return strings.Contains(contentType, "image/svg+xml") && strings.Contains(text, "<svg")
}

func lookup(doc map[string]any, path []string) (string, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[key]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

func scanForMarkup(text string) (string, bool) {
	start := strings.Index(text, "<svg")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(text, "</svg>")
	if end < start {
		return "", false
	}
	return text[start : end+len("</svg>")], true
}
