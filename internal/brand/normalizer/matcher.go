package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// apostropheClass matches every apostrophe rendering seen in source documents.
const apostropheClass = "['´`‘’ʼ]"

const separatorClass = `[\s\-]*`

var accentClasses = map[rune]string{
	'a': "aáàâäãå",
	'e': "eéèêë",
	'i': "iíìîï",
	'o': "oóòôöõ",
	'u': "uúùûü",
	'n': "nñ",
	'c': "cç",
	'y': "yýÿ",
}

// Matcher finds boundary-anchored, case and accent tolerant occurrences of
// a set of aliases. Go's \b is ASCII only, so boundaries are checked on the
// surrounding runes instead.
type Matcher struct {
	variants []variant
	pat      *pattern
}

// NewMatcher compiles aliases into one alternation. The longest bounded
// rendering wins at every start position.
// With pluralTolerant every alias also matches with or without a trailing
// "s" or possessive "'s".
func NewMatcher(aliases []string, pluralTolerant bool) (*Matcher, error) {
	vs, err := variants(aliases, pluralTolerant)
	if err != nil {
		return nil, err
	}
	bodies := make([]string, len(vs))
	for i, v := range vs {
		bodies[i] = v.pattern
	}
	pat, err := compilePattern("(?:" + strings.Join(bodies, "|") + ")")
	if err != nil {
		return nil, fmt.Errorf("compile aliases %q: %w", aliases, err)
	}
	return &Matcher{variants: vs, pat: pat}, nil
}

// variant is one alias rendered as a pattern, with the alias length in
// runes used to order alternatives.
type variant struct {
	pattern string
	length  int
}

func variants(aliases []string, pluralTolerant bool) ([]variant, error) {
	cleaned := make([]string, 0, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no aliases to match")
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return utf8.RuneCountInString(cleaned[i]) > utf8.RuneCountInString(cleaned[j])
	})
	out := make([]variant, 0, len(cleaned))
	seen := make(map[string]bool, len(cleaned))
	for _, a := range cleaned {
		p := aliasPattern(a, pluralTolerant)
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, variant{pattern: p, length: utf8.RuneCountInString(a)})
	}
	return out, nil
}

// pattern pairs a leftmost-longest expression with a copy anchored at the
// start of its input, used to retry shorter renderings at one position.
type pattern struct {
	re       *regexp.Regexp
	anchored *regexp.Regexp
}

func compilePattern(body string) (*pattern, error) {
	re, err := regexp.Compile("(?i)" + body)
	if err != nil {
		return nil, err
	}
	anchored, err := regexp.Compile(`(?i)\A(?:` + body + ")")
	if err != nil {
		return nil, err
	}
	re.Longest()
	anchored.Longest()
	return &pattern{re: re, anchored: anchored}, nil
}

func aliasPattern(alias string, pluralTolerant bool) string {
	stem := alias
	if pluralTolerant {
		stem = trimPossessive(stem)
	}

	var b strings.Builder
	prevSep := false
	for _, r := range stem {
		switch {
		case isApostrophe(r):
			b.WriteString(apostropheClass + "?")
		case unicode.IsSpace(r) || r == '-':
			if !prevSep {
				b.WriteString(separatorClass)
			}
			prevSep = true
			continue
		case unicode.IsLetter(r):
			b.WriteString(letterClass(r))
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
		prevSep = false
	}

	if pluralTolerant {
		b.WriteString("(?:" + apostropheClass + "*s)?")
	}
	return b.String()
}

// trimPossessive drops a trailing "'s" so the suffix can be made optional.
func trimPossessive(s string) string {
	if len(s) < 3 {
		return s
	}
	last, size := utf8.DecodeLastRuneInString(s)
	if last != 's' && last != 'S' {
		return s
	}
	rest := s[:len(s)-size]
	prev, psize := utf8.DecodeLastRuneInString(rest)
	if isApostrophe(prev) {
		return rest[:len(rest)-psize]
	}
	return s
}

func letterClass(r rune) string {
	base := []rune(FoldLower(string(r)))
	if len(base) != 1 {
		return regexp.QuoteMeta(string(r))
	}
	if class, ok := accentClasses[base[0]]; ok {
		return "[" + class + "]"
	}
	return regexp.QuoteMeta(string(base[0]))
}

func isApostrophe(r rune) bool {
	return strings.ContainsRune("'´`‘’ʼ", r)
}

// Match reports whether any alias occurs in text.
func (m *Matcher) Match(text string) bool {
	found := false
	scan(m.pat, text, func(loc []int) bool {
		found = true
		return false
	})
	return found
}

// FindAll returns the [start, end) byte spans of every occurrence.
func (m *Matcher) FindAll(text string) [][2]int {
	var spans [][2]int
	scan(m.pat, text, func(loc []int) bool {
		spans = append(spans, [2]int{loc[0], loc[1]})
		return true
	})
	return spans
}

// scan walks the accepted matches of p in text, left to right. A match
// touching a word on either side is retried with shorter renderings at the
// same start; when none is bounded the search resumes one rune later. fn
// gets absolute submatch offsets and returns false to stop.
func scan(p *pattern, text string, fn func(loc []int) bool) {
	pos := 0
	for pos <= len(text) {
		loc := p.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return
		}
		shift(loc, pos)

		start := loc[0]
		if loc = p.settle(text, loc); loc != nil {
			if !fn(loc) {
				return
			}
			pos = loc[1]
			continue
		}

		if start >= len(text) {
			return
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
}

// settle shortens loc until its span is bounded. It returns nil when no
// rendering starting at loc[0] is.
func (p *pattern) settle(text string, loc []int) []int {
	start := loc[0]
	for loc != nil && loc[1] > start {
		if bounded(text, start, loc[1]) {
			return loc
		}
		_, size := utf8.DecodeLastRuneInString(text[start:loc[1]])
		loc = p.anchored.FindStringSubmatchIndex(text[start : loc[1]-size])
		if loc != nil {
			shift(loc, start)
		}
	}
	return nil
}

func shift(loc []int, by int) {
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += by
		}
	}
}

func bounded(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	return !continuesWord(text[end:])
}

// continuesWord reports whether rest carries on the word before it. An
// apostrophe followed by letters does, except for a bare possessive "'s".
func continuesWord(rest string) bool {
	if rest == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(rest)
	if isWordRune(r) {
		return true
	}
	if !isApostrophe(r) {
		return false
	}
	rest = rest[size:]
	next, size := utf8.DecodeRuneInString(rest)
	if rest == "" || !isWordRune(next) {
		return false
	}
	if next != 's' && next != 'S' {
		return true
	}
	rest = rest[size:]
	if rest == "" {
		return false
	}
	after, _ := utf8.DecodeRuneInString(rest)
	return isWordRune(after)
}
