package retrieval

import (
	"fmt"
	"math"
	"testing"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/embedding"
)

// stubEmbedder returns a fixed vector for every query.
type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.Response{
		Embedding: embedding.ResponseEmbedding{Values: s.vector},
	}, nil
}

// sectionWithScore builds a unit vector whose cosine against [1, 0] is
// exactly score.
func sectionWithScore(id string, score float64) Section {
	return Section{
		ID:     id,
		Title:  id,
		Vector: []float32{float32(score), float32(math.Sqrt(1 - score*score))},
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"scale invariance", []float32{1, 2, 3}, []float32{4, 8, 12}, 1.0},
		{"opposite direction", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 2.5}
	b := []float32{1.1, 0.4, -0.7}

	if got, want := CosineSimilarity(a, b), CosineSimilarity(b, a); got != want {
		t.Errorf("sim(a,b) = %f, sim(b,a) = %f, want equal", got, want)
	}
}

func descendingCorpus() ([]Section, []float32) {
	// Ten candidates with descending scores 0.90, 0.85, ..., 0.45 against
	// the query vector [1, 0].
	corpus := make([]Section, 0, 10)
	for i := 0; i < 10; i++ {
		score := 0.90 - float64(i)*0.05
		corpus = append(corpus, sectionWithScore(fmt.Sprintf("section-%d", i), score))
	}
	return corpus, []float32{1, 0}
}

func TestSearchRankedDescendingWithTopK(t *testing.T) {
	corpus, query := descendingCorpus()
	engine := NewEngine(
		&stubEmbedder{vector: query},
		Config{SimilarityThreshold: 0.3, TopK: 5},
		logger.NewNopLogger(),
	)

	results, trace := engine.Search("pump pressure fault", MetadataFilter{}, corpus)

	if len(results) != 5 {
		t.Fatalf("result count = %d, want 5", len(results))
	}
	if math.Abs(results[0].Score-0.90) > 1e-6 {
		t.Errorf("first score = %f, want 0.90", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not descending at index %d: %f > %f", i, results[i].Score, results[i-1].Score)
		}
	}
	if trace.Mode != ModeVector {
		t.Errorf("trace mode = %q, want %q", trace.Mode, ModeVector)
	}
	if trace.CountAboveThreshold != 10 {
		t.Errorf("count above threshold = %d, want 10", trace.CountAboveThreshold)
	}
}

func TestSearchThresholdMonotonicity(t *testing.T) {
	corpus, query := descendingCorpus()

	prevCount := len(corpus) + 1
	for _, threshold := range []float64{0.0, 0.3, 0.5, 0.7, 0.9, 0.95} {
		engine := NewEngine(
			&stubEmbedder{vector: query},
			Config{SimilarityThreshold: threshold, TopK: 10},
			logger.NewNopLogger(),
		)
		results, _ := engine.Search("any query", MetadataFilter{}, corpus)
		if len(results) > prevCount {
			t.Errorf("raising threshold to %f increased count from %d to %d", threshold, prevCount, len(results))
		}
		prevCount = len(results)
	}
}

func TestSearchThresholdBoundaryInclusive(t *testing.T) {
	corpus := []Section{sectionWithScore("exact", 0.5)}
	engine := NewEngine(
		&stubEmbedder{vector: []float32{1, 0}},
		Config{SimilarityThreshold: 0.5, TopK: 5},
		logger.NewNopLogger(),
	)

	results, _ := engine.Search("boundary", MetadataFilter{}, corpus)

	if len(results) != 1 {
		t.Fatalf("candidate with score == threshold excluded, result count = %d, want 1", len(results))
	}
}

func TestSearchMetadataNarrowing(t *testing.T) {
	corpus := []Section{
		{ID: "a", Manufacturer: "Drager", Equipment: "Evita V500", Vector: []float32{1, 0}},
		{ID: "b", Manufacturer: "GE Healthcare", Equipment: "Carescape R860", Vector: []float32{1, 0}},
	}
	engine := NewEngine(
		&stubEmbedder{vector: []float32{1, 0}},
		DefaultConfig(),
		logger.NewNopLogger(),
	)

	results, trace := engine.Search("alarm", MetadataFilter{Manufacturer: "drager"}, corpus)

	if trace.CandidatesAfterMetadataFilter != 1 {
		t.Errorf("candidates after metadata filter = %d, want 1", trace.CandidatesAfterMetadataFilter)
	}
	if len(results) != 1 || results[0].Section.ID != "a" {
		t.Fatalf("expected only the Drager section, got %+v", results)
	}
}

func TestSearchKeywordFallback(t *testing.T) {
	corpus := []Section{
		{ID: "a", Title: "Flow sensor calibration", Text: "Recalibrate the flow sensor after replacement."},
		{ID: "b", Title: "Battery replacement", Text: "Replace the backup battery every two years."},
	}

	t.Run("embedding failure degrades to keyword mode", func(t *testing.T) {
		engine := NewEngine(
			&stubEmbedder{err: fmt.Errorf("embedding service down")},
			DefaultConfig(),
			logger.NewNopLogger(),
		)
		results, trace := engine.Search("flow sensor", MetadataFilter{}, corpus)

		if trace.Mode != ModeKeyword {
			t.Fatalf("trace mode = %q, want %q", trace.Mode, ModeKeyword)
		}
		if trace.Reason == "" {
			t.Error("keyword trace should carry a reason")
		}
		if len(results) == 0 || results[0].Section.ID != "a" {
			t.Errorf("expected flow sensor section first, got %+v", results)
		}
	})

	t.Run("empty query reports reason", func(t *testing.T) {
		engine := NewEngine(&stubEmbedder{vector: []float32{1}}, DefaultConfig(), logger.NewNopLogger())
		_, trace := engine.Search("", MetadataFilter{}, corpus)

		if trace.Mode != ModeKeyword {
			t.Errorf("trace mode = %q, want %q", trace.Mode, ModeKeyword)
		}
	})

	t.Run("empty corpus reports reason", func(t *testing.T) {
		engine := NewEngine(&stubEmbedder{vector: []float32{1}}, DefaultConfig(), logger.NewNopLogger())
		results, trace := engine.Search("anything", MetadataFilter{}, nil)

		if trace.Mode != ModeKeyword {
			t.Errorf("trace mode = %q, want %q", trace.Mode, ModeKeyword)
		}
		if len(results) != 0 {
			t.Errorf("expected no results from empty corpus, got %d", len(results))
		}
	})
}
