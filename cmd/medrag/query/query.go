// Package querycmder provides the query command, which answers a question
// about one ingested file in a persona-specific report.
package querycmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/analysis"
	"github.com/papercomputeco/medrag/pkg/cliui"
	"github.com/papercomputeco/medrag/pkg/components"
	"github.com/papercomputeco/medrag/pkg/config"
	"github.com/papercomputeco/medrag/pkg/dotdir"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/utils"
)

const previewLen = 120

type queryCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	raw       bool
	noInput   bool

	question string
	filePath string
	persona  string

	// flag targets, resolved through viper into cfg
	topK        uint
	vsProvider  string
	vsTarget    string
	collection  string
	embProvider string
	embTarget   string
	embModel    string
	embDims     uint
	llmProvider string
	llmTarget   string
	llmModel    string

	interactive bool
	in          io.ReadCloser
	out         io.Writer
	logger      *slog.Logger
}

var queryFlags = []string{
	config.FlagTopK,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
}

const queryLongDesc string = `Ask a question about one ingested file.

Retrieval is restricted to the units of the target file, so the report never
mixes in context from other patients' files. The report is written for a
doctor (clinical terminology, differentials) or a patient (plain language).

Missing values are prompted for when running in a terminal. The persona
accepts D, P, doctor or patient.

Examples:
  medrag query
  medrag query -q "Is there a fracture?" -f data/raw/images/xray_01.png -p doctor
  medrag query -q "What did the doctor say about my dosage?" -f visit.mp3 -p P --top-k 10`

const queryShortDesc string = "Ask a question about one file"

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForCommand(cmd, queryFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.in = os.Stdin
			cmder.out = cmd.OutOrStdout()
			cmder.interactive = !cmder.noInput && cliui.IsTerminal(os.Stdin)
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.question, "query", "q", "", "Question about the target file")
	cmd.Flags().StringVarP(&cmder.filePath, "file", "f", "", "Target file path; only its base name is matched")
	cmd.Flags().StringVarP(&cmder.persona, "persona", "p", "", "Report audience: doctor (D) or patient (P)")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the report as markdown source instead of rendering it")
	cmd.Flags().BoolVar(&cmder.noInput, "no-input", false, "Never prompt; fail when a value is missing")

	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vsTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)

	return cmd
}

func (c *queryCommander) run(ctx context.Context) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	req, err := c.request()
	if err != nil {
		return err
	}

	persistDir, err := dotdir.NewManager().PersistDir(c.configDir)
	if err != nil {
		return err
	}

	stack := components.BuildQuery(c.cfg, persistDir, c.logger)
	defer func() {
		if err := stack.Close(); err != nil {
			c.logger.Warn("closing query components", "error", err)
		}
	}()

	fmt.Fprintln(c.out)
	var rep *analysis.Report
	msg := fmt.Sprintf("Analyzing %s for the %s", analysis.Target(req.TargetFile), strings.ToLower(req.Persona.String()))
	err = cliui.Step(c.out, msg, func() error {
		var err error
		rep, err = stack.Analyzer.Analyze(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	c.printReport(rep)
	return nil
}

// request fills an analysis request from flags, prompting for missing
// values when interactive.
func (c *queryCommander) request() (analysis.Request, error) {
	p := &prompter{in: c.in, out: c.out, interactive: c.interactive}

	question, err := p.question(c.question)
	if err != nil {
		return analysis.Request{}, err
	}
	filePath, err := p.filePath(c.filePath)
	if err != nil {
		return analysis.Request{}, err
	}
	persona, err := p.persona(c.persona)
	if err != nil {
		return analysis.Request{}, err
	}

	return analysis.Request{
		Query:      question,
		TargetFile: filePath,
		Persona:    persona,
		TopK:       int(c.cfg.Query.TopK),
	}, nil
}

func (c *queryCommander) printReport(rep *analysis.Report) {
	fmt.Fprintf(c.out, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Report for"),
		cliui.KeyStyle.Render(rep.Target),
	)

	body := rep.Body
	if !c.raw && isTerminalWriter(c.out) {
		if rendered, err := cliui.RenderMarkdown(body); err == nil {
			body = rendered
		} else {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
	}
	fmt.Fprintln(c.out, strings.TrimRight(body, "\n"))

	fmt.Fprintf(c.out, "\n%s\n", cliui.HeaderStyle.Render(fmt.Sprintf("Sources Used (%d)", len(rep.Sources))))
	for i, src := range rep.Sources {
		fmt.Fprintf(c.out, "  %d. %s %s %s\n",
			i+1,
			cliui.KeyStyle.Render(src.Source),
			cliui.ScoreStyle.Render(fmt.Sprintf("score %.4f", src.Score)),
			cliui.DimStyle.Render("["+string(src.Type)+"]"),
		)
		fmt.Fprintf(c.out, "     %s\n", cliui.ValueStyle.Render(utils.Preview(src.Content, previewLen)))
	}
	fmt.Fprintln(c.out)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && cliui.IsTerminal(f)
}
