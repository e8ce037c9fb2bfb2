package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/medrag/pkg/analysis"
)

// MockAnalyzer returns Report (or Err) for every request and records what it
// was asked.
type MockAnalyzer struct {
	Report *analysis.Report
	Err    error

	mu       sync.Mutex
	requests []analysis.Request
}

func (m *MockAnalyzer) Analyze(_ context.Context, req analysis.Request) (*analysis.Report, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Report, nil
}

// Requests returns a copy of every request received.
func (m *MockAnalyzer) Requests() []analysis.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]analysis.Request(nil), m.requests...)
}
