package querycmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/papercomputeco/medrag/pkg/report"
)

type prompter struct {
	in          io.ReadCloser
	out         io.Writer
	interactive bool
}

func (p *prompter) question(value string) (string, error) {
	return p.ask(value, "query", "Question about the file", notBlank("question"))
}

func (p *prompter) filePath(value string) (string, error) {
	return p.ask(value, "file", "Target file path (e.g. data/raw/images/xray_01.png)", notBlank("file path"))
}

// persona parses value, or asks until the answer is D, P, doctor or patient.
func (p *prompter) persona(value string) (report.Persona, error) {
	answer, err := p.ask(value, "persona", "Persona (D for doctor, P for patient)", func(s string) error {
		_, err := report.ParsePersona(s)
		return err
	})
	if err != nil {
		return 0, err
	}
	return report.ParsePersona(answer)
}

// ask returns value when set. Otherwise it prompts, or fails when stdin is
// not a terminal.
func (p *prompter) ask(value, flag, label string, validate promptui.ValidateFunc) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	if !p.interactive {
		return "", fmt.Errorf("--%s is required when not prompting", flag)
	}

	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
		Stdin:    p.in,
		Stdout:   nopWriteCloser{p.out},
	}
	answer, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errors.New("query cancelled")
		}
		return "", fmt.Errorf("reading %s: %w", flag, err)
	}
	return strings.TrimSpace(answer), nil
}

func notBlank(what string) promptui.ValidateFunc {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
