// Package initcmder provides the init command for initializing a local .medrag
// directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/medrag/pkg/cliui"
	"github.com/papercomputeco/medrag/pkg/config"
)

const (
	dirName        = ".medrag"
	configFileName = "config.toml"
)

const initLongDesc string = `Initialize a new .medrag/ directory in the current working directory.

Creates a local .medrag/ directory that takes precedence over the default
~/.medrag/ directory for configuration, the index store and ingest state.

A config.toml is written from a preset. Presets name a provider stack
(gemini, openai, ollama) or an http(s) URL serving a config.toml. Without
--preset an existing config.toml is left untouched; on a terminal you are
asked to pick a preset.

Examples:
  medrag init
  medrag init --preset ollama
  medrag init --preset https://example.com/medrag/config.toml`

const initShortDesc string = "Initialize a local .medrag/ directory"

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Provider preset (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .medrag directory: %w", err)
	}

	configPath := filepath.Join(dir, configFileName)
	_, statErr := os.Stat(configPath)
	exists := statErr == nil

	preset := c.preset
	if preset == "" && !exists && cliui.IsTerminal(os.Stdin) {
		preset, err = selectPreset()
		if err != nil {
			return err
		}
	}

	if preset == "" && exists {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
		return nil
	}

	cfg, err := resolvePreset(ctx, preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Initialized %s\n", cliui.SuccessMark, cliui.ValueStyle.Render(dir))
	if preset != "" {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Preset:"), cliui.ValueStyle.Render(preset))
	}
	return nil
}

// resolvePreset returns defaults for an empty preset, the named preset, or
// the config fetched from a URL.
func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchRemoteConfig(ctx, preset)
	default:
		return config.PresetConfig(preset)
	}
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}

func selectPreset() (string, error) {
	prompt := promptui.Select{
		Label: "Select a provider preset",
		Items: config.ValidPresetNames(),
	}
	_, preset, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", errors.New("init cancelled")
		}
		return "", fmt.Errorf("preset selection: %w", err)
	}
	return preset, nil
}
