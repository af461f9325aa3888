package irisfast

import (
	"strings"
	"unicode/utf8"
)

const (
	seeMorePadding   = 500
	zeroWidthSpace   = "\u200b"
	seeMoreThreshold = 400
)

// applySeeMore prefixes long texts with a header and zero-width padding so
// KakaoTalk folds the body behind its "see more" button.
func applySeeMore(text, header string) string {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) < seeMoreThreshold {
		return text
	}
	header = strings.TrimSpace(header)
	var b strings.Builder
	b.Grow(len(text) + len(header) + seeMorePadding*len(zeroWidthSpace) + 1)
	b.WriteString(header)
	b.WriteString(strings.Repeat(zeroWidthSpace, seeMorePadding))
	if !strings.HasPrefix(text, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(text)
	return b.String()
}
