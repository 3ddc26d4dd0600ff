package filesystem

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the body. Keys are lower-cased. Content without a well-formed block
// is returned unchanged with nil metadata.
func splitFrontMatter(content string) (map[string]any, string) {
	s := strings.TrimPrefix(content, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !strings.HasPrefix(s, "---\n") {
		return nil, content
	}

	rest := "\n" + s[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, content
	}
	fmText := rest[:end]

	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(fmText), &raw); err != nil {
		return nil, content
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	return out, body
}

// firstHeading returns the text of the first Markdown ATX heading.
func firstHeading(body string) string {
	for line := range strings.SplitSeq(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			if title := strings.TrimSpace(strings.TrimLeft(line, "#")); title != "" {
				return title
			}
		}
	}
	return ""
}
