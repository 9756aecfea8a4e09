package pipeline

import (
	"log/slog"

	"reelsmith/internal/align"
	"reelsmith/internal/config"
	"reelsmith/internal/imagegen"
	"reelsmith/internal/render"
	"reelsmith/internal/stage"
	"reelsmith/internal/subtitles"
	"reelsmith/internal/voiceover"
)

// DefaultHandlers wires the production executor for every pipeline stage.
func DefaultHandlers(cfg *config.Config, logger *slog.Logger) Handlers {
	return Handlers{
		stage.Image:       imagegen.NewService(cfg, logger),
		stage.Audio:       voiceover.NewSynthesizer(cfg, logger),
		stage.AudioConcat: voiceover.NewJoiner(cfg, logger),
		stage.Align:       align.NewRunner(cfg, logger),
		stage.Subtitles:   subtitles.NewGenerator(cfg, logger),
		stage.Clips:       render.NewClipRenderer(cfg, logger),
		stage.Slideshow:   render.NewSlideshowBuilder(cfg, logger),
		stage.Mux:         render.NewMuxer(cfg, logger),
		stage.Final:       render.NewFinalizer(cfg, logger),
	}
}
