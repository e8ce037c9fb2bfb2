package ingestcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/cliui"
	"github.com/papercomputeco/medrag/pkg/runstate"
)

const statusLongDesc string = `Show the most recent ingestion run.

Reads the run state recorded in the medrag directory by "medrag ingest".`

const statusShortDesc string = "Show the last ingestion run"

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runStatus(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runStatus(w io.Writer, configDir string) error {
	rs, err := runstate.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("resolving medrag directory: %w", err)
	}

	state, err := rs.LoadState()
	if err != nil {
		return err
	}
	if state == nil || state.LastRun == nil {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No ingestion has run yet."))
		return nil
	}

	running := "idle"
	if lock, err := rs.TryLock(); err != nil {
		running = "running"
	} else {
		_ = lock.Release()
	}

	last := state.LastRun
	row := func(key, value string) {
		fmt.Fprintf(w, "  %-10s %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
	}

	fmt.Fprintln(w)
	row("State", running)
	row("Raw dir", state.RawDir)
	row("Runs", fmt.Sprintf("%d", state.Runs))
	row("Last run", last.StartedAt.Format("2006-01-02 15:04:05"))
	row("Duration", cliui.FormatDuration(last.Duration))
	switch {
	case last.Error != "":
		row("Result", cliui.FailMark+" "+last.Error)
	case last.Skipped:
		row("Result", "skipped, no documents found")
	default:
		row("Result", fmt.Sprintf("%s %d files, %d units (%d new)", cliui.SuccessMark, last.Files, last.Units, last.NewUnits))
	}
	row("Log", state.LogPath)
	fmt.Fprintln(w)

	return nil
}
