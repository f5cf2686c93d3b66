package retrieval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/embedding"
)

// Section is one indexed slice of a service manual, carrying the vector it
// was indexed with.
type Section struct {
	ID           string
	Manufacturer string
	Equipment    string
	Title        string
	Text         string
	Vector       []float32
}

// ScoredSection pairs a section with its similarity against the query.
type ScoredSection struct {
	Section Section
	Score   float64
}

type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Trace records how a single retrieval ran so callers and test suites can
// distinguish degraded keyword operation from semantic retrieval.
type Trace struct {
	Mode                          string       `json:"mode"` // "vector" | "keyword"
	Reason                        string       `json:"reason,omitempty"`
	CorpusSize                    int          `json:"corpus_size"`
	CandidatesAfterMetadataFilter int          `json:"candidates_after_metadata_filter"`
	QueryText                     string       `json:"query_text"`
	TopScores                     []LabelScore `json:"top_scores"`
	Threshold                     float64      `json:"threshold"`
	CountAboveThreshold           int          `json:"count_above_threshold"`
	TopK                          int          `json:"top_k"`
}

const (
	ModeVector  = "vector"
	ModeKeyword = "keyword"
)

// MetadataFilter narrows the corpus before any scoring happens. Narrowing
// first cuts embedding-comparison cost and keeps irrelevant-but-similar
// sections from displacing relevant ones.
type MetadataFilter struct {
	Manufacturer string
	Equipment    string
}

// Config encapsulates retrieval parameters
type Config struct {
	SimilarityThreshold float64
	TopK                int
}

// DefaultConfig returns default retrieval configuration
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.35,
		TopK:                5,
	}
}

// Engine scores manual sections against a query vector.
type Engine struct {
	provider embedding.Provider
	config   Config
	logger   logger.ILogger
}

func NewEngine(provider embedding.Provider, config Config, log logger.ILogger) *Engine {
	return &Engine{
		provider: provider,
		config:   config,
		logger:   log,
	}
}

// Search ranks corpus sections against queryText. It always returns a
// trace; results may be empty but never nil semantics for the caller.
func (e *Engine) Search(queryText string, filter MetadataFilter, corpus []Section) ([]ScoredSection, *Trace) {
	trace := &Trace{
		Mode:       ModeVector,
		CorpusSize: len(corpus),
		QueryText:  queryText,
		Threshold:  e.config.SimilarityThreshold,
		TopK:       e.config.TopK,
		TopScores:  []LabelScore{},
	}

	if len(corpus) == 0 {
		return e.keywordFallback(queryText, filter, corpus, trace, "corpus is empty")
	}
	if strings.TrimSpace(queryText) == "" {
		return e.keywordFallback(queryText, filter, corpus, trace, "query text is empty")
	}

	candidates := narrowByMetadata(corpus, filter)
	trace.CandidatesAfterMetadataFilter = len(candidates)

	embeddingRes, err := e.provider.Generate(queryText, embedding.TaskRetrievalQuery)
	if err != nil {
		e.logger.Warn("retrieval", "Embedding generation failed, degrading to keyword mode", map[string]interface{}{
			"error": err.Error(),
		})
		return e.keywordFallback(queryText, filter, corpus, trace, fmt.Sprintf("embedding generation failed: %v", err))
	}
	queryVector := embeddingRes.Embedding.Values

	scored := make([]ScoredSection, 0, len(candidates))
	for _, section := range candidates {
		scored = append(scored, ScoredSection{
			Section: section,
			Score:   CosineSimilarity(queryVector, section.Vector),
		})
	}

	// Stable sort keeps original corpus order on ties, for reproducibility.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	for i := 0; i < len(scored) && i < e.config.TopK; i++ {
		trace.TopScores = append(trace.TopScores, LabelScore{
			Label: scored[i].Section.Title,
			Score: scored[i].Score,
		})
	}

	// Inclusive boundary: score == threshold stays in.
	kept := make([]ScoredSection, 0, len(scored))
	for _, s := range scored {
		if s.Score >= e.config.SimilarityThreshold {
			kept = append(kept, s)
		}
	}
	trace.CountAboveThreshold = len(kept)

	if len(kept) > e.config.TopK {
		kept = kept[:e.config.TopK]
	}

	e.logger.Debug("retrieval", "Vector search completed", map[string]interface{}{
		"corpus_size":     len(corpus),
		"after_metadata":  len(candidates),
		"above_threshold": trace.CountAboveThreshold,
		"returned":        len(kept),
	})

	return kept, trace
}

func (e *Engine) keywordFallback(queryText string, filter MetadataFilter, corpus []Section, trace *Trace, reason string) ([]ScoredSection, *Trace) {
	trace.Mode = ModeKeyword
	trace.Reason = reason

	candidates := narrowByMetadata(corpus, filter)
	trace.CandidatesAfterMetadataFilter = len(candidates)

	terms := strings.Fields(strings.ToLower(queryText))

	var kept []ScoredSection
	if len(terms) == 0 {
		// Nothing to match on. Surface the head of the narrowed corpus so
		// downstream stages still see whatever context exists.
		for _, section := range candidates {
			kept = append(kept, ScoredSection{Section: section})
		}
	} else {
		for _, section := range candidates {
			haystack := strings.ToLower(section.Title + " " + section.Text)
			matched := 0
			for _, term := range terms {
				if strings.Contains(haystack, term) {
					matched++
				}
			}
			if matched == 0 {
				continue
			}
			kept = append(kept, ScoredSection{
				Section: section,
				Score:   float64(matched) / float64(len(terms)),
			})
		}
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Score > kept[j].Score
		})
	}

	for i := 0; i < len(kept) && i < e.config.TopK; i++ {
		trace.TopScores = append(trace.TopScores, LabelScore{
			Label: kept[i].Section.Title,
			Score: kept[i].Score,
		})
	}
	trace.CountAboveThreshold = len(kept)

	if len(kept) > e.config.TopK {
		kept = kept[:e.config.TopK]
	}

	e.logger.Warn("retrieval", "Keyword fallback used", map[string]interface{}{
		"reason":   reason,
		"returned": len(kept),
	})

	return kept, trace
}

func narrowByMetadata(corpus []Section, filter MetadataFilter) []Section {
	narrowed := make([]Section, 0, len(corpus))
	for _, section := range corpus {
		if filter.Manufacturer != "" &&
			!strings.EqualFold(section.Manufacturer, filter.Manufacturer) {
			continue
		}
		if filter.Equipment != "" &&
			!strings.Contains(strings.ToLower(section.Equipment), strings.ToLower(filter.Equipment)) {
			continue
		}
		narrowed = append(narrowed, section)
	}
	return narrowed
}

// CosineSimilarity measures directional similarity of two vectors. It is
// symmetric, bounded in [-1, 1] and scale-invariant; zero-magnitude input
// yields 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
