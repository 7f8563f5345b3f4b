package reranker

import "strings"

// Tokenize splits a query into distinct lowercase keywords, dropping
// stopwords and tokens of two characters or fewer.
func Tokenize(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	seen := make(map[string]bool, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) <= 2 || stopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
		r == '_' || r > 127
}

// stopwords covers the Indonesian function words common in hadith
// queries plus a short English list for mixed-language input.
var stopwords = map[string]bool{
	// Indonesian
	"yang": true, "dan": true, "dari": true, "untuk": true,
	"pada": true, "dengan": true, "dalam": true, "adalah": true,
	"itu": true, "ini": true, "tidak": true, "atau": true,
	"juga": true, "akan": true, "bahwa": true, "sebagai": true,
	"oleh": true, "karena": true, "jika": true, "maka": true,
	"telah": true, "ada": true, "saya": true, "kami": true,
	"kita": true, "mereka": true, "dia": true, "apa": true,
	"siapa": true, "bagaimana": true, "mengapa": true, "kapan": true,
	"dimana": true, "tentang": true, "setiap": true, "agar": true,
	"sudah": true, "belum": true, "bisa": true, "harus": true,
	"hanya": true, "ketika": true, "seperti": true, "antara": true,

	// English
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"with": true, "this": true, "that": true, "what": true,
	"which": true, "when": true, "where": true, "how": true,
	"about": true, "does": true, "did": true, "can": true,
	"will": true, "would": true, "should": true, "have": true,
	"has": true, "had": true, "you": true, "not": true,
}
