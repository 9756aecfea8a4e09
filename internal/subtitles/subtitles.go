// Package subtitles turns aligned word timings into a karaoke-styled ASS
// script, one dialogue line per readable word group.
package subtitles

import (
	"context"
	"log/slog"
	"os"

	"reelsmith/internal/align"
	"reelsmith/internal/config"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

// Generator runs the subtitles stage. It is pure Go: no external tools.
type Generator struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewGenerator constructs the subtitles stage executor.
func NewGenerator(cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "subtitles"),
	}
}

// Prepare verifies the alignment output exists.
func (g *Generator) Prepare(_ context.Context, task *stage.Task) error {
	if _, err := os.Stat(task.Build.AlignmentPath()); err != nil {
		return services.Wrap(services.ErrStale, stage.Subtitles, "prepare", "alignment output missing", err)
	}
	return nil
}

// Execute reads the word timings and writes the ASS script.
func (g *Generator) Execute(_ context.Context, task *stage.Task) error {
	data, err := os.ReadFile(task.Build.AlignmentPath())
	if err != nil {
		return services.Wrap(services.ErrStorage, stage.Subtitles, "execute", "read alignment output", err)
	}
	words, err := align.ParseAlignment(data)
	if err != nil {
		return err
	}

	script := RenderASS(align.SpokenWords(words), Style{
		PlayResX:          g.cfg.Video.Width,
		PlayResY:          g.cfg.Video.Height,
		FontName:          g.cfg.Subtitles.FontName,
		FontSize:          g.cfg.Subtitles.FontSize,
		MarginV:           g.cfg.Subtitles.MarginV,
		Outline:           g.cfg.Subtitles.Outline,
		Shadow:            g.cfg.Subtitles.Shadow,
		MaxWordsPerLine:   g.cfg.Subtitles.MaxWordsPerLine,
		MaxLineSeconds:    g.cfg.Subtitles.MaxLineSeconds,
		MaxWordGapSeconds: g.cfg.Subtitles.MaxWordGapSeconds,
	})

	if err := fileutil.WriteFileAtomic(task.Build.SubtitlePath(), []byte(script), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, stage.Subtitles, "execute", "write subtitle script", err)
	}

	g.logger.Info("subtitles generated",
		logging.Int("words", len(align.SpokenWords(words))),
		logging.String("path", task.Build.SubtitlePath()))
	return nil
}
