package llm

import (
	"regexp"
	"strings"
)

var (
	reFenceOpen   = regexp.MustCompile("(?m)^```(?:json|JSON)?[ \t]*\n?")
	reFenceClose  = regexp.MustCompile("\n?```$")
	reTagLead     = regexp.MustCompile(`^\s*<[^>]+>\s*`)
	reTagTrail    = regexp.MustCompile(`\s*</[^>]+>\s*$`)
	reLineComment = regexp.MustCompile(`(?m)//.*?$`)
	reBlkComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reTrailComma  = regexp.MustCompile(`,(\s*[}\]])`)
	reCtrlChars   = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")
)

// FirstJSONBlock forcefully extracts the first JSON object or array from
// free-form model output. It strips code fences and simple markup wrappers,
// finds the first '{' or '[' (whichever occurs first), and scans to the end
// of input auto-closing any unbalanced containers and an unterminated string.
// It never fails; if no opener exists it returns the stripped text unchanged
// and the caller decides what that means.
func FirstJSONBlock(text string) string {
	s := strings.TrimSpace(strings.TrimPrefix(text, "\uFEFF"))

	if strings.HasPrefix(s, "```") {
		s = reFenceOpen.ReplaceAllString(s, "")
		s = reFenceClose.ReplaceAllString(s, "")
	}

	s = reTagLead.ReplaceAllString(s, "")
	s = reTagTrail.ReplaceAllString(s, "")

	// Locate the first opener. A leading '[' wins over a later '{'.
	i1, i2 := strings.IndexByte(s, '{'), strings.IndexByte(s, '[')
	i := i1
	if i == -1 || (i2 != -1 && i2 < i) {
		i = i2
	}
	if i == -1 {
		return s
	}

	var stack []byte
	inStr := false
	esc := false
	end := len(s)
	for j := i; j < len(s); j++ {
		c := s[j]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			// Pop only on a matching opener; stray closers are ignored.
			if n := len(stack); n > 0 {
				top := stack[n-1]
				if (top == '{' && c == '}') || (top == '[' && c == ']') {
					stack = stack[:n-1]
				}
			}
		}
		// The first block ends where the outermost container closes;
		// anything after it is trailing prose.
		if len(stack) == 0 {
			end = j + 1
			break
		}
	}

	var b strings.Builder
	b.WriteString(s[i:end])
	if inStr {
		b.WriteByte('"')
	}
	for n := len(stack) - 1; n >= 0; n-- {
		if stack[n] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

// CleanMinorIssues scrubs common near-JSON defects without ever failing:
// JS-style comments, trailing commas before '}' or ']', non-breaking spaces,
// smart quotes, and unprintable control characters (tab/newline/CR survive).
func CleanMinorIssues(s string) string {
	if s == "" {
		return s
	}

	s = strings.TrimPrefix(s, "\uFEFF")

	s = reLineComment.ReplaceAllString(s, "")
	s = reBlkComment.ReplaceAllString(s, "")

	s = reTrailComma.ReplaceAllString(s, "$1")

	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "“", `"`)
	s = strings.ReplaceAll(s, "”", `"`)
	s = strings.ReplaceAll(s, "‘", "'")
	s = strings.ReplaceAll(s, "’", "'")

	s = reCtrlChars.ReplaceAllString(s, "")

	return s
}

// Salvage runs both passes. The result is maximally likely to parse as JSON
// but is not guaranteed to; callers detect failure via their own parse.
func Salvage(text string) string {
	return CleanMinorIssues(FirstJSONBlock(text))
}
