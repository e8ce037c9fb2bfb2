package api

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/storage"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	UserQuery string `json:"user_query"`
	FilePath  string `json:"file_path"`
	Persona   string `json:"persona"`
	TopK      int    `json:"top_k,omitempty"`
}

// AnalyzeResponse is the body returned by POST /analyze.
type AnalyzeResponse struct {
	Report  string           `json:"report"`
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse is one retrieved unit. Score is formatted to four decimals.
type SourceResponse struct {
	File    string `json:"file"`
	Score   string `json:"score"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// FilesResponse is the body returned by GET /files.
type FilesResponse struct {
	Files []storage.SourceSummary `json:"files"`
	Count int                     `json:"count"`
}

// ErrorResponse carries a human-readable failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAnalyze runs the query pipeline for one file. Caller mistakes and
// missing configuration are 400s. Anything else is a 500 with the detail
// kept in the log. An empty or unknown persona is a caller mistake; it is not
// defaulted to the patient template.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "invalid request body"})
	}

	persona, err := report.ParsePersona(req.Persona)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: err.Error()})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.DefaultTopK
	}

	rep, err := s.analyzer.Analyze(c.UserContext(), analysis.Request{
		Query:      req.UserQuery,
		TargetFile: req.FilePath,
		Persona:    persona,
		TopK:       topK,
	})
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest), errors.Is(err, analysis.ErrNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: err.Error()})
	case err != nil:
		s.logger.Error("analysis failed",
			"file_path", req.FilePath,
			"persona", persona.String(),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: "Internal RAG process failed"})
	}

	return c.JSON(AnalyzeResponse{
		Report:  rep.Body,
		Sources: sourceResponses(rep.Sources),
	})
}

// handleListFiles lists the ingested files a client may target.
func (s *Server) handleListFiles(c *fiber.Ctx) error {
	if s.index == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Detail: "index store is not configured"})
	}

	files, err := s.index.Sources(c.UserContext())
	if err != nil {
		s.logger.Error("listing sources failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: "failed to list files"})
	}
	if files == nil {
		files = []storage.SourceSummary{}
	}

	return c.JSON(FilesResponse{Files: files, Count: len(files)})
}

func sourceResponses(sources []analysis.Source) []SourceResponse {
	out := make([]SourceResponse, 0, len(sources))
	for _, src := range sources {
		out = append(out, SourceResponse{
			File:    src.Source,
			Score:   fmt.Sprintf("%.4f", src.Score),
			Type:    string(src.Type),
			Content: src.Content,
		})
	}
	return out
}
