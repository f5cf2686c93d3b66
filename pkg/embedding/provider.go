package embedding

// Provider defines the interface for generating text embeddings
type Provider interface {
	Generate(text string, taskType string) (*Response, error)
}

// Task types understood by the embedding backends. Queries and corpus
// documents must be embedded with matching task types or cosine scores
// drift.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

type ResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type Response struct {
	Embedding ResponseEmbedding `json:"embedding"`
}
