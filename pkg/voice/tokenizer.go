package voice

import (
	"strings"
	"unicode"
)

// MaxChunkChars is the longest text the Google endpoint accepts per request.
const MaxChunkChars = 100

const (
	toneMarks        = "?!？！"
	periodComma      = ".,"
	otherPunctuation = "¡¿。，、（）［］【】『』「」《》〈〉〔〕;—…–"
	allPunctuation   = toneMarks + periodComma + ":" + otherPunctuation
)

// Abbreviations whose trailing period is not a sentence boundary.
var abbreviations = map[string]bool{
	"dr": true, "esq": true, "jr": true, "mr": true, "mrs": true, "ms": true,
	"prof": true, "sr": true, "st": true, "vs": true, "etc": true,
}

// Tokenize splits text into chunks of at most max runes, preferring
// punctuation boundaries and then spaces. Chunks that carry no speakable
// characters are dropped, so the result may be empty.
func Tokenize(text string, max int) []string {
	if max <= 0 {
		max = MaxChunkChars
	}

	text = preprocess(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= max {
		return cleanTokens([]string{text})
	}

	var out []string
	for _, tok := range cleanTokens(splitPunctuation(text)) {
		out = append(out, minimize(tok, max)...)
	}
	return cleanTokens(out)
}

func preprocess(text string) string {
	text = strings.TrimSpace(text)
	// Words hyphenated across a line break are joined back together.
	text = strings.ReplaceAll(text, "-\r\n", "")
	text = strings.ReplaceAll(text, "-\n", "")
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

	words := strings.Split(text, " ")
	for i, w := range words {
		if strings.HasSuffix(w, ".") && abbreviations[strings.ToLower(strings.TrimSuffix(w, "."))] {
			words[i] = strings.TrimSuffix(w, ".")
		}
	}
	return strings.Join(words, " ")
}

// splitPunctuation cuts after tone marks (kept) and at other punctuation
// (dropped). A period or comma only splits when a space follows it, so
// "1.5" and "example.com" stay whole; a colon splits unless it sits
// between digits, as in "10:30".
func splitPunctuation(text string) []string {
	runes := []rune(text)
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		tokens = append(tokens, cur.String())
		cur.Reset()
	}

	for i, r := range runes {
		var prev, next rune
		if i > 0 {
			prev = runes[i-1]
		}
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case strings.ContainsRune(toneMarks, r):
			cur.WriteRune(r)
			flush()
		case strings.ContainsRune(periodComma, r):
			// "e.g. " ends a dotted abbreviation, not a clause.
			if next != ' ' || (i >= 2 && runes[i-2] == '.' && unicode.IsLetter(prev)) {
				cur.WriteRune(r)
				continue
			}
			flush()
		case r == ':':
			if unicode.IsDigit(prev) && unicode.IsDigit(next) {
				cur.WriteRune(r)
				continue
			}
			flush()
		case strings.ContainsRune(otherPunctuation, r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// minimize cuts tok into pieces of at most max runes, at the last space
// before the limit when there is one.
func minimize(tok string, max int) []string {
	var out []string
	runes := []rune(strings.TrimPrefix(tok, " "))
	for len(runes) > max {
		idx := lastSpace(runes[:max])
		if idx <= 0 {
			idx = max
		}
		out = append(out, string(runes[:idx]))
		runes = runes[idx:]
		if len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return append(out, string(runes))
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func cleanTokens(tokens []string) []string {
	out := tokens[:0:0]
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || onlyPunctuation(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func onlyPunctuation(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(allPunctuation, r) && !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func runeLen(s string) int {
	return len([]rune(s))
}
