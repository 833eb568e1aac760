package moderation

import (
	"regexp"
	"strings"
)

// ContainsSensitiveWord reports the first of words that occurs in text as a
// whole word, case-insensitively. Unlike the classifier's denylist scan this
// is anchored on word boundaries; the two paths are kept separate on purpose
// until product decides which behaviour should win.
func ContainsSensitiveWord(text string, words []string) (string, bool) {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return "", false
	}

	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	match := re.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.ToLower(match), true
}
