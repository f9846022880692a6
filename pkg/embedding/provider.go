package embedding

import "math"

// Provider generates vector embeddings for retrieval. The taskType hint
// distinguishes document indexing from query embedding for providers that
// support asymmetric embeddings; others ignore it.
type Provider interface {
	Generate(text string, taskType string) (*Response, error)
}

const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

type ResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type Response struct {
	Embedding ResponseEmbedding `json:"embedding"`
}

// NewProvider selects an embedding backend by name.
func NewProvider(name, apiKey, baseURL, model string) Provider {
	switch name {
	case "openai":
		return NewOpenAIProvider(apiKey, model)
	default:
		return NewOllamaProvider(baseURL, model)
	}
}

// normalizeVector scales a vector to unit length. Cosine distance in
// pgvector assumes normalized vectors.
func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / magnitude)
	}
	return out
}
