package mcp_test

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medrag/api/mcp"
	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/report"
	"github.com/papercomputeco/medrag/pkg/storage"
	"github.com/papercomputeco/medrag/pkg/storage/inmemory"
	"github.com/papercomputeco/medrag/pkg/storage/storagetest"
	"github.com/papercomputeco/medrag/pkg/unit"
	testutils "github.com/papercomputeco/medrag/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var (
		ctx      context.Context
		analyzer *testutils.MockAnalyzer
		index    *inmemory.Driver
		server   *mcp.Server
		session  *sdkmcp.ClientSession
	)

	connect := func() {
		clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

		serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(serverSession.Close)

		client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "medrag-test", Version: "v0"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(session.Close)
	}

	textOf := func(res *sdkmcp.CallToolResult) string {
		Expect(res.Content).NotTo(BeEmpty())
		text, ok := res.Content[0].(*sdkmcp.TextContent)
		Expect(ok).To(BeTrue())
		return text.Text
	}

	BeforeEach(func() {
		ctx = context.Background()
		analyzer = &testutils.MockAnalyzer{
			Report: &analysis.Report{
				Target: "notes.txt",
				Body:   "**Clinical Explanation and Summary**\nStable.",
				Sources: []analysis.Source{
					{Source: "notes.txt", Score: 0.91, Type: unit.Text, Content: "BP 120/80"},
				},
			},
		}
		index = inmemory.NewDriver()

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Analyzer: analyzer,
			Index:    index,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the analyzer is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Index: index})
			Expect(err).To(MatchError(ContainSubstring("analyzer is required")))
		})

		It("allows an empty noop server", func() {
			s, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("omits list_files without an index", func() {
			var err error
			server, err = mcp.NewServer(mcp.Config{Analyzer: analyzer})
			Expect(err).NotTo(HaveOccurred())
			connect()

			tools, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			names := []string{}
			for _, t := range tools.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("analyze"))
		})
	})

	Describe("analyze tool", func() {
		BeforeEach(connect)

		It("returns the report and its sources", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name: "analyze",
				Arguments: map[string]any{
					"query":     "Is the blood pressure normal?",
					"file_path": "data/raw/text/notes.txt",
					"persona":   "d",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(textOf(res)).To(ContainSubstring("Clinical Explanation and Summary"))
			Expect(textOf(res)).To(ContainSubstring("BP 120/80"))

			reqs := analyzer.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].TargetFile).To(Equal("data/raw/text/notes.txt"))
			Expect(reqs[0].Persona).To(Equal(report.Doctor))
		})

		It("defaults to the patient persona", func() {
			_, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "analyze",
				Arguments: map[string]any{"query": "What is this?", "file_path": "notes.txt"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(analyzer.Requests()[0].Persona).To(Equal(report.Patient))
		})

		It("reports an unknown persona as a tool error", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "analyze",
				Arguments: map[string]any{"query": "q", "file_path": "notes.txt", "persona": "nurse"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("unknown persona"))
			Expect(analyzer.Requests()).To(BeEmpty())
		})

		It("reports configuration problems as a tool error", func() {
			analyzer.Err = fmt.Errorf("%w: no generation model", analysis.ErrNotConfigured)

			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "analyze",
				Arguments: map[string]any{"query": "q", "file_path": "notes.txt"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("no generation model"))
		})

		It("reports unexpected failures as a tool error", func() {
			analyzer.Err = errors.New("qdrant unavailable")

			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "analyze",
				Arguments: map[string]any{"query": "q", "file_path": "notes.txt"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("Analysis failed"))
		})
	})

	Describe("list_files tool", func() {
		BeforeEach(connect)

		It("lists ingested sources", func() {
			_, err := index.Put(ctx, []storage.Record{
				storagetest.TextRecord("notes.txt", 0),
				storagetest.TextRecord("notes.txt", 400),
				storagetest.TextRecord("discharge.txt", 0),
			})
			Expect(err).NotTo(HaveOccurred())

			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "list_files",
				Arguments: map[string]any{},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			text := textOf(res)
			Expect(text).To(ContainSubstring(`"count":2`))
			Expect(text).To(ContainSubstring(`"source":"discharge.txt"`))
			Expect(text).To(ContainSubstring(`"units":2`))
		})
	})
})
