package picker

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// folded is text prepared for accent- and case-insensitive matching. Every
// folded rune remembers the byte range of the original rune it came from, so
// a match can be mapped back onto the original text even when folding
// changed its length.
type folded struct {
	runes []rune
	start []int
	end   []int
}

func fold(s string) folded {
	f := folded{
		runes: make([]rune, 0, len(s)),
		start: make([]int, 0, len(s)),
		end:   make([]int, 0, len(s)),
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		for _, fr := range foldRune(r) {
			f.runes = append(f.runes, fr)
			f.start = append(f.start, i)
			f.end = append(f.end, i+size)
		}
		i += size
	}
	return f
}

func foldRune(r rune) string {
	r = unicode.ToLower(r)
	if r < utf8.RuneSelf {
		return string(r)
	}
	out, _, err := transform.String(stripMarks, norm.NFD.String(string(r)))
	if err != nil {
		return string(r)
	}
	return out
}

func (f folded) empty() bool {
	return len(f.runes) == 0
}

// index returns the position of the first occurrence of sub, or -1.
func (f folded) index(sub folded) int {
	n := len(sub.runes)
	if n == 0 {
		return 0
	}
outer:
	for i := 0; i+n <= len(f.runes); i++ {
		for j := 0; j < n; j++ {
			if f.runes[i+j] != sub.runes[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func (f folded) contains(sub folded) bool {
	return f.index(sub) >= 0
}

// matchSpan returns the byte range of text covered by the first match of
// filter. f must be fold(text). Combining marks right after the match are
// part of it.
func matchSpan(text string, f, filter folded) (from, to int, ok bool) {
	if filter.empty() {
		return 0, 0, false
	}
	i := f.index(filter)
	if i < 0 {
		return 0, 0, false
	}
	from, to = f.start[i], f.end[i+len(filter.runes)-1]
	for to < len(text) {
		r, size := utf8.DecodeRuneInString(text[to:])
		if !unicode.Is(unicode.Mn, r) {
			break
		}
		to += size
	}
	return from, to, true
}

// highlight wraps the first match of filter inside text with style.
func highlight(text string, filter folded, style func(string) string) string {
	return highlightFolded(text, fold(text), filter, style)
}

func highlightFolded(text string, f, filter folded, style func(string) string) string {
	from, to, ok := matchSpan(text, f, filter)
	if !ok {
		return text
	}
	return text[:from] + style(text[from:to]) + text[to:]
}
