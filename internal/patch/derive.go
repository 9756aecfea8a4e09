package patch

import (
	"context"
	"log/slog"
	"strings"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
)

// Completer is the external language-model collaborator that translates
// free-text feedback into a structured patch. Implemented by llm.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Engine derives patches from feedback and merges them into documents.
type Engine struct {
	completer Completer
	logger    *slog.Logger
}

// NewEngine constructs a patch engine backed by the given collaborator.
func NewEngine(completer Completer, logger *slog.Logger) *Engine {
	return &Engine{completer: completer, logger: logging.NewComponentLogger(logger, "patch-engine")}
}

// Derive asks the collaborator for a structured patch and validates it
// against the base document before accepting it. Collaborator output that
// references unknown scene ids or malformed edits is rejected, never
// silently dropped.
func (e *Engine) Derive(ctx context.Context, base spec.Document, feedback string) (Patch, error) {
	if e == nil || e.completer == nil {
		return Patch{}, services.Wrap(services.ErrConfiguration, "patch", "derive", "no language model configured", nil)
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Patch{}, nil
	}

	specYAML, err := spec.Encode(base)
	if err != nil {
		return Patch{}, err
	}

	raw, err := e.completer.Complete(ctx, derivePatchSystemPrompt, buildDeriveUserPrompt(string(specYAML), feedback))
	if err != nil {
		return Patch{}, services.Wrap(services.ErrExternalTool, "patch", "derive", "language model call failed", err)
	}

	p, err := Parse([]byte(stripCodeFences(raw)))
	if err != nil {
		return Patch{}, err
	}
	if err := p.ValidateAgainst(base); err != nil {
		return Patch{}, err
	}

	e.logger.Info("patch derived from feedback",
		logging.Int("edited_scenes", len(p.Scenes)),
		logging.Int("added_scenes", len(p.Add)),
		logging.Int("removed_scenes", len(p.Remove)),
	)
	return p, nil
}

// stripCodeFences removes markdown fences some models wrap YAML in despite
// instructions.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```yaml")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
