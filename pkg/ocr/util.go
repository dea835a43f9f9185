package ocr

import "strings"

// snippet returns a shortened version of text for logging.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// tidyLines drops carriage returns and trailing blanks on every line while
// keeping the line structure the hand history parser depends on.
func tidyLines(t string) string {
	t = strings.ReplaceAll(t, "\r", "")
	lines := strings.Split(t, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
