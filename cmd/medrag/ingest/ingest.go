// Package ingestcmder provides the ingest command, which extracts units from
// the raw directory and stores them in the vector store.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/cliui"
	"github.com/papercomputeco/medrag/pkg/components"
	"github.com/papercomputeco/medrag/pkg/config"
	"github.com/papercomputeco/medrag/pkg/dotdir"
	"github.com/papercomputeco/medrag/pkg/extract"
	"github.com/papercomputeco/medrag/pkg/ingest"
	"github.com/papercomputeco/medrag/pkg/llm/provider"
	"github.com/papercomputeco/medrag/pkg/logger"
	"github.com/papercomputeco/medrag/pkg/runstate"
)

type ingestCommander struct {
	cfg       *config.Config
	configDir string
	debug     bool
	watch     bool
	wait      bool
	debounce  time.Duration

	// flag targets, resolved through viper into cfg
	rawDir      string
	storageProv string
	sqlitePath  string
	postgresDSN string
	vsProvider  string
	vsTarget    string
	collection  string
	embProvider string
	embTarget   string
	embModel    string
	embDims     uint
	llmProvider string
	llmTarget   string
	captionMdl  string
	transcriber string
	evProvider  string
	evBrokers   string
	evTopic     string

	out    io.Writer
	logger *slog.Logger
}

var ingestFlags = []string{
	config.FlagRawDir,
	config.FlagStorageProv,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagCaptionModel,
	config.FlagTranscriber,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

const ingestLongDesc string = `Ingest medical files into the vector store.

Files are discovered under the raw directory:
  text/*.txt                 chunked plain text
  images/*.png|jpg|jpeg      OCR text plus a generated visual description
  audio/*.mp3|wav            transcript

Each unit gets a deterministic id derived from the file contents, so running
ingest again over unchanged files updates units in place. Only one ingestion
runs at a time per medrag directory.

Use --watch to keep running and re-ingest whenever the raw directories change.

Examples:
  medrag ingest
  medrag ingest --raw-dir ./data/raw --vector-store-provider chromem
  medrag ingest --watch
  medrag ingest status`

const ingestShortDesc string = "Ingest raw medical files"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForCommand(cmd, ingestFlags)
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
			cmder.out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Re-run ingestion when the raw directories change")
	cmd.Flags().BoolVar(&cmder.wait, "wait", false, "Wait for a running ingestion instead of failing")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", defaultDebounce, "Quiet period before a watched change triggers ingestion")

	config.AddStringFlag(cmd, config.Flags, config.FlagRawDir, &cmder.rawDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProv, &cmder.storageProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vsTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagCaptionModel, &cmder.captionMdl)
	config.AddStringFlag(cmd, config.Flags, config.FlagTranscriber, &cmder.transcriber)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.evProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.evBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.evTopic)

	cmd.AddCommand(newStatusCmd())

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	rs, err := runstate.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("resolving medrag directory: %w", err)
	}

	lock, err := c.acquire(rs)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	logFile, err := rs.OpenLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	c.logger = logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(logFile), logger.WithRedact(logger.PatientDataKeys...)),
	)

	persistDir, err := dotdir.NewManager().PersistDir(c.configDir)
	if err != nil {
		return err
	}

	coord, cleanup, err := c.buildCoordinator(ctx, persistDir)
	if err != nil {
		return err
	}
	defer cleanup()

	if !c.watch {
		return c.ingestOnce(ctx, coord, rs)
	}
	return c.watchLoop(ctx, coord, rs)
}

func (c *ingestCommander) acquire(rs *runstate.Manager) (*runstate.Lock, error) {
	if c.wait {
		return rs.Lock()
	}
	lock, err := rs.TryLock()
	if errors.Is(err, runstate.ErrLocked) {
		return nil, fmt.Errorf("%w (use --wait to queue, log: %s)", err, rs.LogPath)
	}
	return lock, err
}

// buildCoordinator wires every ingest collaborator. The vector store is
// contacted first so an unreachable store aborts before any extraction.
func (c *ingestCommander) buildCoordinator(ctx context.Context, persistDir string) (*ingest.Coordinator, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				c.logger.Warn("closing ingest component", "error", err)
			}
		}
	}
	fail := func(err error) (*ingest.Coordinator, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	driver, err := components.VectorDriver(c.cfg, persistDir, c.logger)
	if err != nil {
		return fail(fmt.Errorf("connecting to vector store: %w", err))
	}
	closers = append(closers, driver.Close)

	embedder, err := components.Embedder(c.cfg, c.logger)
	if err != nil {
		return fail(fmt.Errorf("creating embedder: %w", err))
	}
	closers = append(closers, embedder.Close)

	// Captions are optional: images fall back to OCR text alone.
	client, err := components.LLM(c.cfg, c.logger)
	if err != nil {
		c.logger.Warn("image captioning disabled", "error", err)
	}
	captioner := components.Captioner(c.cfg, client)

	transcriber, transcriberName, err := components.Transcriber(c.cfg, c.logger)
	if err != nil {
		c.logger.Warn("audio transcription disabled", "error", err)
	}
	var audio extract.Extractor
	if transcriber != nil {
		audio = extract.NewAudio(extract.AudioConfig{
			Transcriber:     transcriber,
			TranscriberName: transcriberName,
			Logger:          c.logger,
		})
	}

	index, err := components.IndexStore(ctx, c.cfg, persistDir, c.logger)
	if err != nil {
		return fail(fmt.Errorf("opening index store: %w", err))
	}
	closers = append(closers, index.Close)

	publisher, err := components.Publisher(c.cfg, c.logger)
	if err != nil {
		return fail(fmt.Errorf("creating event publisher: %w", err))
	}
	closers = append(closers, publisher.Close)

	coord, err := ingest.New(ingest.Config{
		RawDir: c.cfg.Ingest.RawDir,
		Text:   extract.NewText(extract.TextConfig{Logger: c.logger}),
		Image: extract.NewImage(extract.ImageConfig{
			OCR:           components.OCR(c.cfg, c.logger),
			Captioner:     captioner,
			CaptionerName: captionerName(c.cfg),
			Logger:        c.logger,
		}),
		Audio:     audio,
		Driver:    driver,
		Embedder:  embedder,
		Index:     index,
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fail(err)
	}

	return coord, cleanup, nil
}

// captionerName labels the coordinator's caption source after the configured
// generation provider.
func captionerName(cfg *config.Config) string {
	return provider.DisplayName(cfg.LLM.Provider)
}

func (c *ingestCommander) ingestOnce(ctx context.Context, coord *ingest.Coordinator, rs *runstate.Manager) error {
	started := time.Now()
	result, err := coord.Run(ctx)

	run := runstate.Run{StartedAt: started, Duration: time.Since(started)}
	if result != nil {
		run.Files = result.Files()
		run.Units = result.Units
		run.NewUnits = result.NewUnits
		run.Skipped = result.Skipped
	}
	if err != nil {
		run.Error = err.Error()
	}
	if rerr := rs.RecordRun(c.cfg.Ingest.RawDir, c.watch, run); rerr != nil {
		c.logger.Warn("recording ingest run", "error", rerr)
	}

	if err != nil {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.FailMark, err)
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n", cliui.SuccessMark, result.Summary())
	return nil
}
