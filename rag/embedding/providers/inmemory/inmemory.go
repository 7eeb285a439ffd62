// Package inmemory provides a deterministic, hash-seeded embedder with no
// external dependencies — useful for tests and for running the pipeline
// without a real embedding provider configured.
package inmemory

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
)

const defaultDimensions = 128

// Embedder is a deterministic, hash-seeded embedder.
type Embedder struct {
	dimensions int
}

// New constructs an Embedder. cfg.Options["dimensions"] (a float64, as
// decoded from JSON) overrides the default of 128; zero or negative values
// fall back to the default.
func New(cfg config.ProviderConfig) (*Embedder, error) {
	dims := defaultDimensions
	if d, ok := config.GetOption[float64](cfg, "dimensions"); ok && d > 0 {
		dims = int(d)
	}
	return &Embedder{dimensions: dims}, nil
}

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = embed(t, e.dimensions)
	}
	return vecs, nil
}

func (e *Embedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return embed(text, e.dimensions), nil
}

func (e *Embedder) Dimensions() int { return e.dimensions }

// embed deterministically derives a unit vector from text: the text's FNV
// hash seeds a PRNG, so the same text always yields the same vector.
func embed(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func init() {
	embedding.Register("inmemory", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

var _ embedding.Embedder = (*Embedder)(nil)
