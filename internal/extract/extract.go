// Package extract pulls structured content out of a single unstructured
// generation result: named sections, embedded JSON objects, and fenced code
// blocks.
//
// Every function is pure and total. A miss never produces an error; each
// operation defines an explicit fallback so the pipeline always has
// well-defined content to write.
package extract

import "strings"

// Section returns the body of the first "# <heading>" section in content,
// trimmed of surrounding whitespace. The body runs up to (not including) the
// next heading line. Headings are matched on whole lines; nesting is not
// supported. The scan is flat and ordered, the first match wins. Returns ""
// when the heading is absent.
func Section(content, heading string) string {
	lines := strings.Split(content, "\n")
	start := -1
	for i, line := range lines {
		if headingName(line) == heading {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if isHeading(lines[i]) {
			end = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// JSONObject isolates the named section and returns the first balanced JSON
// object literal found inside it. The scanner counts matching brace pairs so
// nested objects and arrays survive intact, and it skips braces inside quoted
// strings (including escaped quotes). Returns "{}" when no balanced object
// exists.
func JSONObject(content, heading string) string {
	section := Section(content, heading)
	if obj, ok := balancedObject(section); ok {
		return obj
	}
	return "{}"
}

// CodeBlock returns the body of the first fenced code block whose opening
// fence declares the given language tag, trimmed. A fence that is opened but
// never closed counts as absent. When no matching block exists the entire
// input is returned unchanged, so callers can treat plain responses as code.
func CodeBlock(content, language string) string {
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "```"+language {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				return strings.TrimSpace(strings.Join(lines[i+1:j], "\n"))
			}
		}
		// Opening fence without a closing fence: treat as not found.
		break
	}
	return content
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// headingName extracts the name of a heading line, stripping the marker run
// and surrounding whitespace. Non-heading lines yield "".
func headingName(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
}

// balancedObject scans text for the outermost balanced {...} literal.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
