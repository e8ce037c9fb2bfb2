package assemblyai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/pkg/transcribe/assemblyai"
)

type fakeAssembly struct {
	mu       sync.Mutex
	uploaded []byte
	request  map[string]any
	polls    int
	final    string
	errMsg   string
}

func (f *fakeAssembly) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer GinkgoRecover()

	Expect(r.Header.Get("Authorization")).To(Equal("aai-key"))
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		f.uploaded, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"upload_url":"https://cdn.example/abc"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/transcript":
		json.NewDecoder(r.Body).Decode(&f.request)
		w.Write([]byte(`{"id":"t1","status":"queued"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/transcript/t1":
		f.polls++
		if f.polls < 2 {
			w.Write([]byte(`{"id":"t1","status":"processing"}`))
			return
		}
		resp, _ := json.Marshal(map[string]string{"id": "t1", "status": f.final, "text": "Patient reports dizziness.", "error": f.errMsg})
		w.Write(resp)
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}
}

var _ = Describe("Transcriber", func() {
	var (
		fake   *fakeAssembly
		server *httptest.Server
		audio  string
		tr     *assemblyai.Transcriber
	)

	BeforeEach(func() {
		fake = &fakeAssembly{final: assemblyai.StatusCompleted}
		server = httptest.NewServer(fake)

		audio = filepath.Join(GinkgoT().TempDir(), "visit.wav")
		Expect(os.WriteFile(audio, []byte("RIFF audio"), 0o600)).To(Succeed())

		var err error
		tr, err = assemblyai.New(assemblyai.Config{
			APIKey:       "aai-key",
			BaseURL:      server.URL,
			PollInterval: 10 * time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		_, err := assemblyai.New(assemblyai.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("uploads, submits and polls until completion", func() {
		text, err := tr.Transcribe(context.Background(), audio)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Patient reports dizziness."))

		Expect(fake.uploaded).To(Equal([]byte("RIFF audio")))
		Expect(fake.request).To(HaveKeyWithValue("audio_url", "https://cdn.example/abc"))
		Expect(fake.request).To(HaveKeyWithValue("language_code", "en"))
		Expect(fake.polls).To(Equal(2))
	})

	It("returns the job error when transcription fails", func() {
		fake.final = assemblyai.StatusError
		fake.errMsg = "audio too short"

		_, err := tr.Transcribe(context.Background(), audio)
		Expect(err).To(MatchError(assemblyai.ErrTranscriptFailed))
		Expect(err).To(MatchError(ContainSubstring("audio too short")))
	})

	It("stops polling when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tr.Transcribe(ctx, audio)
		Expect(err).To(HaveOccurred())
	})

	It("fails for a missing file", func() {
		_, err := tr.Transcribe(context.Background(), filepath.Join(GinkgoT().TempDir(), "none.mp3"))
		Expect(err).To(HaveOccurred())
	})
})
