package agent

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	userDataBegin = "<<<LEAD_DATA_BEGIN>>>"
	userDataEnd   = "<<<LEAD_DATA_END>>>"

	maxReplyLength     = 400
	maxTranscriptTurns = 40
)

// sanitizeUserInput drops control characters, neutralises our delimiters and
// truncates to maxLen runes.
func sanitizeUserInput(s string, maxLen int) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	result := sb.String()
	result = strings.ReplaceAll(result, userDataBegin, "")
	result = strings.ReplaceAll(result, userDataEnd, "")
	if runes := []rune(result); len(runes) > maxLen {
		result = string(runes[:maxLen]) + "... [truncated]"
	}
	return result
}

// wrapUserData fences lead-provided content off from instructions.
func wrapUserData(content string) string {
	return fmt.Sprintf("%s\n%s\n%s", userDataBegin, content, userDataEnd)
}

// extractJSONObject returns the first balanced {...} object in s. Braces
// inside JSON strings are ignored. Code fences and surrounding prose are
// tolerated.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	for start >= 0 {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
