package outline

import "strings"

const descriptionTag = "@Description:"

// FormatComment reduces a raw comment to the one-line summary shown next to
// a function. Unrecognised shapes yield "".
//
//	// compute total             -> "compute total"
//	/** compute total */         -> "compute total"
//	/**
//	 * @param a
//	 * compute total
//	 */                          -> "compute total"
func FormatComment(raw string) string {
	text := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(text, "//"):
		return strings.TrimSpace(text[2:])
	case len(text) >= len("/***/") && strings.HasPrefix(text, "/**") && strings.HasSuffix(text, "*/"):
		body := text[3 : len(text)-2]
		if !strings.Contains(body, "\n") {
			return strings.TrimSpace(body)
		}
		return docSummary(body)
	}
	return ""
}

func docSummary(body string) string {
	description := ""
	for i, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if i > 0 {
			if !strings.HasPrefix(line, "*") {
				continue
			}
			line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			if description == "" {
				if idx := strings.Index(line, descriptionTag); idx >= 0 {
					description = strings.TrimSpace(line[idx+len(descriptionTag):])
				}
			}
			continue
		}
		return line
	}
	return description
}
