// Package scriptgen turns a free-text video idea into the first version of a
// spec document using an LLM collaborator.
package scriptgen

import (
	"context"
	"log/slog"
	"strings"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
)

// Completer produces a completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator drafts spec documents from idea prompts.
type Generator struct {
	client Completer
	logger *slog.Logger
}

// NewGenerator constructs a script generator.
func NewGenerator(client Completer, logger *slog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logging.NewComponentLogger(logger, "scriptgen"),
	}
}

// Generate asks the collaborator for a complete document and validates the
// result before accepting it. The returned document carries Version 1; the
// version store reassigns the number on save.
func (g *Generator) Generate(ctx context.Context, idea string) (spec.Document, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return spec.Document{}, services.Wrap(services.ErrSchema, "scriptgen", "generate", "idea prompt is empty", nil)
	}

	raw, err := g.client.Complete(ctx, scriptSystemPrompt, buildScriptUserPrompt(idea))
	if err != nil {
		return spec.Document{}, services.Wrap(services.ErrExternalTool, "scriptgen", "generate", "llm completion failed", err)
	}

	doc, err := spec.Parse([]byte(stripCodeFences(raw)))
	if err != nil {
		return spec.Document{}, services.Wrap(services.ErrSchema, "scriptgen", "generate", "llm output is not a valid document", err)
	}
	doc.Version = 1

	if err := doc.ValidateDense(); err != nil {
		return spec.Document{}, err
	}
	if err := doc.RequireRenderable(); err != nil {
		return spec.Document{}, err
	}

	g.logger.Info("script drafted",
		logging.Int("scenes", len(doc.Scenes)),
		logging.String("title", doc.Global.Title))
	return doc, nil
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
