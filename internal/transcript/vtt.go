package transcript

import (
	"regexp"
	"strings"
)

var markup = regexp.MustCompile(`<[^>]+>`)

// ParseVTT flattens a WebVTT document: every cue becomes one line of
// markup-free text, and the lines are joined with spaces.
func ParseVTT(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var cues []string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "-->") {
			continue
		}

		var parts []string
		for i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next == "" || strings.Contains(next, "-->") {
				break
			}
			i++
			if text := strings.TrimSpace(markup.ReplaceAllString(lines[i], "")); text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			cues = append(cues, strings.Join(parts, " "))
		}
	}

	return strings.Join(cues, " ")
}
