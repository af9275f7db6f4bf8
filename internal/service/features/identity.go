package features

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// Cyrillic to Latin, following common passport transliteration.
var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e",
	'є': "ye", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "yi",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o", 'п': "p",
	'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e",
	'ю': "yu", 'я': "ya",
}

// Spelling variants that transliteration produces for the same name.
var variantFolds = strings.NewReplacer(
	"kh", "h",
	"ph", "f",
	"ck", "k",
	"ks", "x",
	"g", "h",
	"w", "v",
	"y", "i",
	"j", "i",
)

// normalizeName lowercases, folds diacritics and transliterates Cyrillic,
// returning space-separated alphabetic tokens.
func normalizeName(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case cyrillic[r] != "" || r == 'ъ' || r == 'ь':
			b.WriteString(cyrillic[r])
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func variantKey(token string) string {
	return variantFolds.Replace(token)
}

// tokensMatch reports whether two name tokens are the same name allowing
// one or two edits or a transliteration variant.
func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	if variantKey(a) == variantKey(b) {
		return true
	}
	shortest := len(a)
	if len(b) < shortest {
		shortest = len(b)
	}
	if shortest < 3 {
		return false
	}
	maxEdits := 1
	if shortest >= 8 {
		maxEdits = 2
	}
	return levenshtein.ComputeDistance(a, b) <= maxEdits
}

// MatchIdentity classifies how closely two personal names agree.
func MatchIdentity(name, other string) review.IdentityMatch {
	a, b := normalizeName(name), normalizeName(other)
	if a == "" || b == "" {
		return review.IdentityMismatch
	}
	if a == b {
		return review.IdentityExact
	}

	at, bt := strings.Fields(a), strings.Fields(b)
	if len(at) != len(bt) {
		// tolerate a dropped middle name
		if len(at) < 2 || len(bt) < 2 {
			return review.IdentityMismatch
		}
		at = []string{at[0], at[len(at)-1]}
		bt = []string{bt[0], bt[len(bt)-1]}
	}
	for i := range at {
		if !tokensMatch(at[i], bt[i]) {
			return review.IdentityMismatch
		}
	}
	return review.IdentityFuzzy
}

// Surname returns the normalized last token of a name.
func Surname(name string) string {
	tokens := strings.Fields(normalizeName(name))
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// SameEntity compares two names after normalization only.
func SameEntity(a, b string) bool {
	na, nb := normalizeName(a), normalizeName(b)
	return na != "" && na == nb
}
