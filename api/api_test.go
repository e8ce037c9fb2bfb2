package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/api"
	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/storage/inmemory"
	"github.com/papercomputeco/medrag/pkg/storage/storagetest"
	"github.com/papercomputeco/medrag/pkg/unit"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		analyzer *testutils.MockAnalyzer
		index    *inmemory.Driver
		server   *api.Server
	)

	do := func(req *http.Request) (*http.Response, []byte) {
		resp, err := server.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, body
	}

	postAnalyze := func(body string) (*http.Response, []byte) {
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return do(req)
	}

	detailOf := func(body []byte) string {
		var e api.ErrorResponse
		Expect(json.Unmarshal(body, &e)).To(Succeed())
		return e.Detail
	}

	BeforeEach(func() {
		analyzer = &testutils.MockAnalyzer{
			Report: &analysis.Report{
				Target: "scan.png",
				Body:   "**Clinical Explanation and Summary**\nNo fracture.",
				Sources: []analysis.Source{
					{Source: "scan.png", Score: 0.87654, Type: unit.ImageAnalysis, Content: "--- Image Analysis for scan.png ---"},
					{Source: "scan.png", Score: 0.5, Type: unit.ImageAnalysis, Content: "OCR Text: L4"},
				},
			},
		}
		index = inmemory.NewDriver()

		var err error
		server, err = api.NewServer(api.Config{ListenAddr: ":0", DefaultTopK: 20, Logger: logger.Nop()}, analyzer, index)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires an analyzer", func() {
		_, err := api.NewServer(api.Config{}, nil, index)
		Expect(err).To(MatchError("analyzer is required"))
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := do(httptest.NewRequest(http.MethodGet, "/ping", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("POST /analyze", func() {
		It("returns the report and formatted sources", func() {
			resp, body := postAnalyze(`{"user_query":"Any fracture?","file_path":"data/raw/images/scan.png","persona":"DOCTOR"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out api.AnalyzeResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Report).To(ContainSubstring("No fracture."))
			Expect(out.Sources).To(HaveLen(2))
			Expect(out.Sources[0]).To(Equal(api.SourceResponse{
				File:    "scan.png",
				Score:   "0.8765",
				Type:    "image_analysis",
				Content: "--- Image Analysis for scan.png ---",
			}))
			Expect(out.Sources[1].Score).To(Equal("0.5000"))

			reqs := analyzer.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0]).To(Equal(analysis.Request{
				Query:      "Any fracture?",
				TargetFile: "data/raw/images/scan.png",
				Persona:    report.Doctor,
				TopK:       20,
			}))
		})

		It("honors an explicit top_k", func() {
			resp, _ := postAnalyze(`{"user_query":"q","file_path":"scan.png","persona":"patient","top_k":3}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(analyzer.Requests()[0].TopK).To(Equal(3))
		})

		It("returns an empty source list rather than null", func() {
			analyzer.Report = &analysis.Report{Target: "scan.png", Body: "No relevant context found in the target file: scan.png"}

			_, body := postAnalyze(`{"user_query":"q","file_path":"scan.png","persona":"p"}`)
			Expect(string(body)).To(ContainSubstring(`"sources":[]`))
		})

		It("rejects malformed JSON with 400", func() {
			resp, body := postAnalyze(`{"user_query":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(detailOf(body)).To(Equal("invalid request body"))
		})

		It("rejects an unknown persona with 400", func() {
			resp, body := postAnalyze(`{"user_query":"q","file_path":"scan.png","persona":"nurse"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(detailOf(body)).To(ContainSubstring("unknown persona"))
			Expect(analyzer.Requests()).To(BeEmpty())
		})

		It("rejects a missing persona instead of defaulting it", func() {
			resp, body := postAnalyze(`{"user_query":"q","file_path":"scan.png"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(detailOf(body)).To(ContainSubstring("unknown persona"))
			Expect(analyzer.Requests()).To(BeEmpty())
		})

		It("maps invalid requests to 400", func() {
			analyzer.Err = fmt.Errorf("%w: query is empty", analysis.ErrInvalidRequest)

			resp, body := postAnalyze(`{"user_query":"","file_path":"scan.png","persona":"D"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(detailOf(body)).To(ContainSubstring("query is empty"))
		})

		It("maps missing configuration to 400", func() {
			analyzer.Err = fmt.Errorf("%w: no generation model", analysis.ErrNotConfigured)

			resp, body := postAnalyze(`{"user_query":"q","file_path":"scan.png","persona":"D"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(detailOf(body)).To(ContainSubstring("analysis is not configured"))
		})

		It("hides unexpected failures behind a generic 500", func() {
			analyzer.Err = errors.New("dial tcp 10.0.0.7:6334: connection refused")

			resp, body := postAnalyze(`{"user_query":"q","file_path":"scan.png","persona":"D"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(detailOf(body)).To(Equal("Internal RAG process failed"))
			Expect(string(body)).NotTo(ContainSubstring("10.0.0.7"))
		})

		It("allows any origin", func() {
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"user_query":"q","file_path":"scan.png","persona":"D"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Origin", "http://localhost:5173")

			resp, _ := do(req)
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("GET /files", func() {
		It("lists ingested sources", func() {
			_, err := index.Put(context.Background(), []storage.Record{
				storagetest.TextRecord("notes.txt", 0),
				storagetest.TextRecord("notes.txt", 512),
			})
			Expect(err).NotTo(HaveOccurred())

			resp, body := do(httptest.NewRequest(http.MethodGet, "/files", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out api.FilesResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(1))
			Expect(out.Files).To(ConsistOf(storage.SourceSummary{Source: "notes.txt", Type: unit.Text, Units: 2}))
		})

		It("returns an empty list for an empty index", func() {
			_, body := do(httptest.NewRequest(http.MethodGet, "/files", nil))
			Expect(string(body)).To(ContainSubstring(`"files":[]`))
		})

		It("returns 503 without an index store", func() {
			var err error
			server, err = api.NewServer(api.Config{DisableMCP: true}, analyzer, nil)
			Expect(err).NotTo(HaveOccurred())

			resp, _ := do(httptest.NewRequest(http.MethodGet, "/files", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("/mcp", func() {
		It("answers an MCP initialize request", func() {
			payload := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"api-test","version":"0"}}}`
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")

			resp, body := do(req)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring(`"name":"medrag"`))
		})

		It("is absent when disabled", func() {
			var err error
			server, err = api.NewServer(api.Config{DisableMCP: true}, analyzer, index)
			Expect(err).NotTo(HaveOccurred())

			resp, _ := do(httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
