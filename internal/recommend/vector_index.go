package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// maxVocabulary caps the TF-IDF term space to the most frequent corpus terms,
// bigrams included, which bounds both index size and per-comparison cost.
const maxVocabulary = 500

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "her": {},
	"his": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "she": {}, "that": {}, "the": {}, "their": {}, "they": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// SimilarityHit is one neighbor returned by a most-similar lookup.
type SimilarityHit struct {
	BookID uuid.UUID
	Score  float64
}

// VectorIndex maps every catalog book to an L2-normalized sparse TF-IDF
// vector over title + description + category text. It is immutable once
// built: the similarity rebuild job constructs a new index from the full
// catalog and publishes it through the Engine.
type VectorIndex struct {
	vocabulary map[string]int
	vectors    map[uuid.UUID]map[int]float64
	bookIDs    []uuid.UUID
	builtAt    time.Time
}

// BuildVectorIndex computes TF-IDF vectors for the given books. An empty
// catalog yields an empty, usable index rather than an error.
func BuildVectorIndex(books []*types.Book) *VectorIndex {
	index := &VectorIndex{
		vocabulary: make(map[string]int),
		vectors:    make(map[uuid.UUID]map[int]float64),
		builtAt:    time.Now().UTC(),
	}
	if len(books) == 0 {
		return index
	}

	docs := make(map[uuid.UUID][]string, len(books))
	docFreq := make(map[string]int)
	for _, book := range books {
		terms := extractTerms(book)
		docs[book.ID] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	index.vocabulary = buildVocabulary(docFreq)

	totalDocs := float64(len(books))
	idf := make([]float64, len(index.vocabulary))
	for term, termID := range index.vocabulary {
		idf[termID] = math.Log((1+totalDocs)/(1+float64(docFreq[term]))) + 1
	}

	for _, book := range books {
		counts := make(map[int]float64)
		for _, term := range docs[book.ID] {
			termID, ok := index.vocabulary[term]
			if !ok {
				continue
			}
			counts[termID]++
		}
		var norm float64
		for termID, tf := range counts {
			w := tf * idf[termID]
			counts[termID] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for termID := range counts {
				counts[termID] /= norm
			}
		}
		index.vectors[book.ID] = counts
		index.bookIDs = append(index.bookIDs, book.ID)
	}

	sort.Slice(index.bookIDs, func(i, j int) bool {
		return index.bookIDs[i].String() < index.bookIDs[j].String()
	})

	return index
}

// MostSimilar returns up to n books ranked by cosine similarity to the query
// book, excluding the query itself. Order is score descending with ties
// broken by book id ascending, so repeated calls over the same index produce
// identical sequences. An unknown query id yields an empty result.
func (ix *VectorIndex) MostSimilar(bookID uuid.UUID, n int) []SimilarityHit {
	if ix == nil || n <= 0 {
		return nil
	}
	query, ok := ix.vectors[bookID]
	if !ok {
		return nil
	}

	hits := make([]SimilarityHit, 0, len(ix.bookIDs)-1)
	for _, candidateID := range ix.bookIDs {
		if candidateID == bookID {
			continue
		}
		hits = append(hits, SimilarityHit{
			BookID: candidateID,
			Score:  dotSparse(query, ix.vectors[candidateID]),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].BookID.String() < hits[j].BookID.String()
	})

	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

// Contains reports whether the index has a vector for the book.
func (ix *VectorIndex) Contains(bookID uuid.UUID) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.vectors[bookID]
	return ok
}

// BookIDs returns the indexed ids in ascending order.
func (ix *VectorIndex) BookIDs() []uuid.UUID {
	if ix == nil {
		return nil
	}
	return ix.bookIDs
}

func (ix *VectorIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.vectors)
}

func (ix *VectorIndex) VocabularyLen() int {
	if ix == nil {
		return 0
	}
	return len(ix.vocabulary)
}

func (ix *VectorIndex) BuiltAt() time.Time {
	if ix == nil {
		return time.Time{}
	}
	return ix.builtAt
}

func extractTerms(book *types.Book) []string {
	text := strings.Join([]string{book.Title, book.Description, book.Category}, " ")
	tokens := tokenize(text)

	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127 {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = appendToken(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = appendToken(tokens, current.String())
	}
	return tokens
}

func appendToken(tokens []string, token string) []string {
	if len(token) < 2 {
		return tokens
	}
	if _, ok := stopwords[token]; ok {
		return tokens
	}
	return append(tokens, token)
}

// buildVocabulary keeps the maxVocabulary most document-frequent terms, ties
// broken alphabetically so rebuilds over unchanged data assign identical ids.
func buildVocabulary(docFreq map[string]int) map[string]int {
	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}

	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}
	return vocabulary
}

func dotSparse(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for termID, wa := range a {
		if wb, ok := b[termID]; ok {
			sum += wa * wb
		}
	}
	return sum
}
