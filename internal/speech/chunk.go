package speech

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into pieces of at most limit runes, preferring to
// cut after punctuation, then between words. Words longer than limit are
// cut hard.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = 100
	}

	var pieces []string
	for _, sentence := range splitAfterPunctuation(text) {
		if utf8.RuneCountInString(sentence) <= limit {
			pieces = append(pieces, sentence)
			continue
		}
		pieces = append(pieces, splitWords(sentence, limit)...)
	}

	return merge(pieces, limit)
}

func splitAfterPunctuation(text string) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '.', ',', ';', ':', '!', '?', '\n':
			flush()
		}
	}
	flush()

	return out
}

func splitWords(sentence string, limit int) []string {
	var out []string
	for _, word := range strings.Fields(sentence) {
		for utf8.RuneCountInString(word) > limit {
			runes := []rune(word)
			out = append(out, string(runes[:limit]))
			word = string(runes[limit:])
		}
		out = append(out, word)
	}
	return merge(out, limit)
}

// merge joins consecutive pieces with a space while they fit in limit
func merge(pieces []string, limit int) []string {
	var out []string
	for _, p := range pieces {
		if n := len(out); n > 0 {
			joined := out[n-1] + " " + p
			if utf8.RuneCountInString(joined) <= limit {
				out[n-1] = joined
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
