package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// OllamaServer fakes the Ollama embed and chat endpoints. Embeddings are
// BagOfWords vectors so that similar texts score higher.
type OllamaServer struct {
	*httptest.Server

	Dimensions int
	Reply      string

	mu    sync.Mutex
	chats int
}

// NewOllamaServer starts a fake Ollama server. Close it when done.
func NewOllamaServer(dims int, reply string) *OllamaServer {
	s := &OllamaServer{Dimensions: dims, Reply: reply}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"model":      req.Model,
			"embeddings": [][]float32{BagOfWords(req.Input, s.Dimensions)},
		})
	})
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.chats++
		s.mu.Unlock()
		writeJSON(w, map[string]any{
			"model":   "fake",
			"message": map[string]string{"role": "assistant", "content": s.Reply},
			"done":    true,
		})
	})

	s.Server = httptest.NewServer(mux)
	return s
}

// Chats returns the number of chat requests served.
func (s *OllamaServer) Chats() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
