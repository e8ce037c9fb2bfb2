package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultMockDimensions is the vector size MockEmbedder produces by default.
const DefaultMockDimensions = 32

// MockEmbedder is a test embedder that returns predictable embeddings.
// Texts without a fixed embedding get a normalized bag-of-words vector, so
// texts sharing words are closer than texts that do not.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Dimensions of generated vectors, DefaultMockDimensions when zero.
	Dimensions int

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Calls counts Embed invocations.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Dimensions: DefaultMockDimensions,
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return BagOfWords(text, m.Dimensions), nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

// BagOfWords hashes lowercased words into a unit-length vector of size dims.
func BagOfWords(text string, dims int) []float32 {
	if dims <= 0 {
		dims = DefaultMockDimensions
	}
	vec := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
