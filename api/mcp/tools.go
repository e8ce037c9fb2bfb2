package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/storage"
)

var (
	analyzeToolName    = "analyze"
	analyzeDescription = "Analyze one ingested medical file. Retrieves the most relevant passages of the named file (text, image analysis or audio transcription) and writes a structured report for a DOCTOR or a PATIENT."

	listFilesToolName    = "list_files"
	listFilesDescription = "List the ingested files that can be passed to analyze, with their modality and number of indexed units."
)

// AnalyzeInput represents the input arguments for the analyze tool.
type AnalyzeInput struct {
	Query    string `json:"query" jsonschema:"the clinical question to answer"`
	FilePath string `json:"file_path" jsonschema:"name or path of the ingested file to analyze"`
	Persona  string `json:"persona,omitempty" jsonschema:"DOCTOR or PATIENT (default: PATIENT)"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default: 20)"`
}

// AnalyzeOutput represents the output of the analyze tool.
type AnalyzeOutput struct {
	Target  string            `json:"target"`
	Persona string            `json:"persona"`
	Report  string            `json:"report"`
	Sources []analysis.Source `json:"sources"`
}

// ListFilesInput takes no arguments.
type ListFilesInput struct{}

// ListFilesOutput represents the output of the list_files tool.
type ListFilesOutput struct {
	Files []storage.SourceSummary `json:"files"`
	Count int                     `json:"count"`
}

func (s *Server) handleAnalyze(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	persona := report.Patient
	if input.Persona != "" {
		p, err := report.ParsePersona(input.Persona)
		if err != nil {
			return errorResult(err.Error()), AnalyzeOutput{}, nil
		}
		persona = p
	}

	s.logger.Debug("MCP analyze request",
		"file_path", input.FilePath,
		"persona", persona.String(),
		"top_k", input.TopK,
	)

	rep, err := s.config.Analyzer.Analyze(ctx, analysis.Request{
		Query:      input.Query,
		TargetFile: input.FilePath,
		Persona:    persona,
		TopK:       input.TopK,
	})
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest), errors.Is(err, analysis.ErrNotConfigured):
		return errorResult(err.Error()), AnalyzeOutput{}, nil
	case err != nil:
		s.logger.Error("MCP analyze failed", "file_path", input.FilePath, "error", err)
		return errorResult(fmt.Sprintf("Analysis failed: %v", err)), AnalyzeOutput{}, nil
	}

	sources := rep.Sources
	if sources == nil {
		sources = []analysis.Source{}
	}

	return nil, AnalyzeOutput{
		Target:  rep.Target,
		Persona: persona.String(),
		Report:  rep.Body,
		Sources: sources,
	}, nil
}

func (s *Server) handleListFiles(ctx context.Context, _ *mcp.CallToolRequest, _ ListFilesInput) (*mcp.CallToolResult, ListFilesOutput, error) {
	files, err := s.config.Index.Sources(ctx)
	if err != nil {
		s.logger.Error("MCP list_files failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to list files: %v", err)), ListFilesOutput{}, nil
	}
	if files == nil {
		files = []storage.SourceSummary{}
	}

	return nil, ListFilesOutput{Files: files, Count: len(files)}, nil
}
