package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps words that are rewritten for family-friendly ratings.
var replacements = map[string]string{
	"fuck":     "fudge",
	"shit":     "shoot",
	"damn":     "dang",
	"hell":     "heck",
	"ass":      "butt",
	"bitch":    "jerk",
	"bastard":  "scoundrel",
	"crap":     "crud",
	"piss":     "ticked",
	"goddamn":  "gosh-dang",
	"asshole":  "jerk",
	"bullshit": "baloney",
	"dumbass":  "dummy",
}

// Filter cleans lines produced by the agent before they are played as
// script lines.
type Filter struct {
	words     []string
	regexes   map[string]*regexp.Regexp
	profanity bool
}

// New creates a filter. Profanity is only rewritten when the content
// rating asks for it.
func New(rating string) *Filter {
	f := &Filter{
		regexes:   make(map[string]*regexp.Regexp, len(replacements)),
		profanity: ShouldFilterContent(rating),
	}
	for word := range replacements {
		f.words = append(f.words, word)
		f.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	// Longest first so compound words win over their parts.
	sort.Slice(f.words, func(i, j int) bool {
		if len(f.words[i]) != len(f.words[j]) {
			return len(f.words[i]) > len(f.words[j])
		}
		return f.words[i] < f.words[j]
	})
	return f
}

// Line sanitizes one agent line. Control characters are dropped, runs of
// whitespace collapse, and a leading command sigil is removed so model
// output can never run a command. Speech and narration sigils are kept.
func (f *Filter) Line(line string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, line)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.TrimLeft(cleaned, "! ")

	if f.profanity {
		cleaned = f.Text(cleaned)
	}
	return cleaned
}

// Lines sanitizes every line and drops the ones left empty.
func (f *Filter) Lines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if cleaned := f.Line(l); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// Text replaces profanity with family-friendly alternatives.
func (f *Filter) Text(text string) string {
	result := text
	for _, word := range f.words {
		replacement := replacements[word]
		result = f.regexes[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// ContainsProfanity checks if the text contains any filtered word.
func (f *Filter) ContainsProfanity(text string) bool {
	for _, word := range f.words {
		if f.regexes[word].MatchString(text) {
			return true
		}
	}
	return false
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}
	return strings.ToLower(replacement)
}

// ShouldFilterContent determines if content should be filtered based on rating
func ShouldFilterContent(rating string) bool {
	rating = strings.ToUpper(strings.TrimSpace(rating))
	switch rating {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}
