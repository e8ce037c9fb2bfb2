package testutils

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/papercomputeco/medrag/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver ranking by cosine similarity.
type MockVectorDriver struct {
	documents map[string]vector.Document
	order     []string

	// IgnoreFilter makes Query disregard its filter, imitating a store whose
	// server-side filtering is broken or permissive.
	IgnoreFilter bool

	// FailUpsert and FailQuery make the respective calls fail.
	FailUpsert bool
	FailQuery  bool

	// UpsertCalls counts Upsert invocations.
	UpsertCalls int

	// LastFilter is the filter passed to the most recent Query.
	LastFilter vector.Filter

	// LastTopK is the topK passed to the most recent Query.
	LastTopK int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, docs []vector.Document) error {
	m.UpsertCalls++
	if m.FailUpsert {
		return errors.New("mock upsert failure")
	}
	for _, d := range docs {
		if _, ok := m.documents[d.ID]; !ok {
			m.order = append(m.order, d.ID)
		}
		m.documents[d.ID] = d
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	m.LastFilter = filter
	m.LastTopK = topK
	if m.FailQuery {
		return nil, errors.New("mock query failure")
	}
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, id := range m.order {
		d := m.documents[id]
		if !m.IgnoreFilter && !filter.Matches(d.Metadata) {
			continue
		}
		results = append(results, vector.QueryResult{Document: d, Score: Cosine(embedding, d.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := m.documents[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.documents, id)
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.documents[id]; ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Len returns the number of stored documents.
func (m *MockVectorDriver) Len() int {
	return len(m.documents)
}

// Cosine returns the cosine similarity of a and b, 0 for mismatched or zero
// vectors.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
