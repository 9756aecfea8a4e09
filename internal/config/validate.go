package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateBGM(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return errors.New("video.width and video.height must be positive")
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if c.Video.CrossfadeSeconds < 0 {
		return errors.New("video.crossfade_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.Width <= 0 || c.Images.Height <= 0 {
		return errors.New("images.width and images.height must be positive")
	}
	if c.Images.Steps <= 0 {
		return errors.New("images.steps must be positive")
	}
	if c.Images.Guidance < 0 {
		return errors.New("images.guidance must not be negative")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	if c.Subtitles.MaxWordsPerLine <= 0 {
		return errors.New("subtitles.max_words_per_line must be positive")
	}
	if c.Subtitles.MaxLineSeconds <= 0 {
		return errors.New("subtitles.max_line_seconds must be positive")
	}
	if c.Subtitles.MaxWordGapSeconds <= 0 {
		return errors.New("subtitles.max_word_gap_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBGM() error {
	if !c.BGM.Enabled {
		return nil
	}
	if c.BGM.File == "" {
		return errors.New("bgm.file must be set when bgm.enabled is true")
	}
	if c.BGM.Volume <= 0 || c.BGM.Volume > 1 {
		return fmt.Errorf("bgm.volume must be in (0, 1], got %v", c.BGM.Volume)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.SceneWorkers <= 0 {
		return errors.New("workflow.scene_workers must be positive")
	}
	if c.Workflow.StageTimeoutSeconds <= 0 {
		return errors.New("workflow.stage_timeout_seconds must be positive")
	}
	return nil
}
