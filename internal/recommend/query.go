package recommend

import (
	"strings"
	"unicode"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

// genreOrder fixes the order genres are tried in, so a query naming two
// genres always resolves the same way.
var genreOrder = []string{"romance", "action", "comedy", "horror", "sci-fi"}

// genreSynonyms maps each genre to the words that select it.
var genreSynonyms = map[string][]string{
	"romance": {"romance", "romantic", "love", "rom-com"},
	"action":  {"action", "adventure", "fight", "combat"},
	"comedy":  {"comedy", "funny", "humor", "satire"},
	"horror":  {"horror", "scary", "thriller", "fear"},
	"sci-fi":  {"sci-fi", "science fiction", "space", "alien"},
}

// genreCatalogNames maps a genre to the catalog's (TMDB) genre name prefix.
var genreCatalogNames = map[string]string{
	"romance": "Romance",
	"action":  "Action",
	"comedy":  "Comedy",
	"horror":  "Horror",
	"sci-fi":  "Science Fiction",
}

var stopWords = map[string]bool{
	"a": true, "about": true, "all": true, "an": true, "and": true, "any": true,
	"are": true, "as": true, "at": true, "be": true, "but": true, "by": true,
	"can": true, "could": true, "do": true, "find": true, "film": true,
	"films": true, "for": true, "from": true, "give": true, "good": true,
	"have": true, "i": true, "in": true, "is": true, "it": true, "like": true,
	"me": true, "movie": true, "movies": true, "my": true, "of": true,
	"on": true, "or": true, "please": true, "recommend": true, "show": true,
	"similar": true, "some": true, "something": true, "suggest": true,
	"that": true, "the": true, "to": true, "want": true, "watch": true,
	"what": true, "which": true, "with": true, "would": true, "you": true,
}

// Keywords returns the query's content words, lower-cased, in order of first
// appearance. Adjacent content words are also joined into two-word phrases
// so phrases like "science fiction" can match.
func Keywords(q string) []string {
	fields := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	var words []string
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f == "" || stopWords[f] {
			continue
		}
		words = append(words, f)
	}

	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for i, w := range words {
		add(w)
		if i+1 < len(words) {
			add(w + " " + words[i+1])
		}
	}
	return out
}

// MatchGenre returns the first genre any keyword selects.
func MatchGenre(keywords []string) (string, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, genre := range genreOrder {
			for _, syn := range genreSynonyms[genre] {
				if kw == syn {
					return genre, true
				}
			}
		}
	}
	return "", false
}

// CatalogGenre returns the catalog genre name for a genre from MatchGenre.
func CatalogGenre(genre string) string {
	if name, ok := genreCatalogNames[genre]; ok {
		return name
	}
	return genre
}

// ParseFilters reads rating, popularity and era hints from the query by
// substring: "top"/"high-rated", "popular", "recent", "old". When both
// "recent" and "old" appear, "old" wins.
func ParseFilters(q string) catalog.Filters {
	lq := strings.ToLower(q)
	var f catalog.Filters

	if strings.Contains(lq, "top") || strings.Contains(lq, "high-rated") {
		f.MinRating = 8.5
	}
	if strings.Contains(lq, "popular") {
		f.MinVotes = 500
	}
	if strings.Contains(lq, "recent") {
		f.ReleasedAfter = "2020-01-01"
	}
	if strings.Contains(lq, "old") {
		f.ReleasedAfter = ""
		f.ReleasedBefore = "2000-01-01"
	}
	return f
}
