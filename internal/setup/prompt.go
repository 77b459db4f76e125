package setup

import (
	"fmt"
	"strings"

	"github.com/bethropolis/promptpack/internal/config"
	"github.com/bethropolis/promptpack/internal/prompt"
	"github.com/bethropolis/promptpack/internal/reader"
	"github.com/bethropolis/promptpack/internal/tokens"
	"github.com/bethropolis/promptpack/internal/utils"
)

// ConfigureAssembler builds the reader, token counter and assembler for cfg
func ConfigureAssembler(cfg *config.Config, log utils.Logger) (*prompt.Assembler, error) {
	counter, err := tokens.New(cfg.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	r := reader.New(
		reader.WithMaxFileSize(cfg.MaxFileSize()),
		reader.WithAllowBinary(cfg.AllowBinary),
		reader.WithLogger(log),
	)

	return &prompt.Assembler{
		Reader:  r,
		Counter: counter,
		Workers: cfg.Workers,
		Logger:  log,
	}, nil
}

// Instruction combines the named template and the free-form instruction,
// template first
func Instruction(cfg *config.Config) (string, error) {
	instruction := strings.TrimSpace(cfg.Instruction)
	if cfg.Template == "" {
		return instruction, nil
	}

	text, err := prompt.Template(cfg.Template)
	if err != nil {
		return "", err
	}
	if instruction == "" {
		return text, nil
	}
	return text + "\n\n" + instruction, nil
}
