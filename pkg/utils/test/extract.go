package testutils

import (
	"context"
	"path/filepath"
)

// MockOCR returns Text (or Err) for every image, or a per-file override from
// ByFile keyed by base name.
type MockOCR struct {
	Text   string
	ByFile map[string]string
	Err    error
	Calls  int
}

func (m *MockOCR) Extract(_ context.Context, path string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if t, ok := m.ByFile[filepath.Base(path)]; ok {
		return t, nil
	}
	return m.Text, nil
}

// MockCaptioner returns Text (or Err) for every image.
type MockCaptioner struct {
	Text  string
	Err   error
	Calls int
}

func (m *MockCaptioner) Caption(_ context.Context, _ string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// MockTranscriber returns Text (or Err) for every audio file, or a per-file
// override from ByFile keyed by base name.
type MockTranscriber struct {
	Text   string
	ByFile map[string]string
	Err    error
	Calls  int
}

func (m *MockTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if t, ok := m.ByFile[filepath.Base(path)]; ok {
		return t, nil
	}
	return m.Text, nil
}
