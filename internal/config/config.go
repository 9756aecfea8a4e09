package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. Relative entries are resolved
// against ProjectDir during normalization.
type Paths struct {
	ProjectDir  string `toml:"project_dir"`
	BuildDir    string `toml:"build_dir"`
	VersionsDir string `toml:"versions_dir"`
	LogDir      string `toml:"log_dir"`
}

// Video contains output rendering parameters.
type Video struct {
	Width            int     `toml:"width"`
	Height           int     `toml:"height"`
	FPS              int     `toml:"fps"`
	CrossfadeSeconds float64 `toml:"crossfade_seconds"`
}

// Images contains configuration for the external image-generation command.
type Images struct {
	Command       string  `toml:"command"`
	Model         string  `toml:"model"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Steps         int     `toml:"steps"`
	Guidance      float64 `toml:"guidance"`
	BaseSeed      int64   `toml:"base_seed"`
	RandomizeSeed bool    `toml:"randomize_seed"`
	StyleSuffix   string  `toml:"style_suffix"`
}

// TTS contains configuration for the external voice synthesis command.
type TTS struct {
	Command string `toml:"command"`
	Model   string `toml:"model"`
	Voice   string `toml:"voice"`
}

// Align contains configuration for the forced aligner.
type Align struct {
	Binary        string `toml:"binary"`
	Dictionary    string `toml:"dictionary"`
	AcousticModel string `toml:"acoustic_model"`
	SampleRate    int    `toml:"sample_rate"`
}

// Subtitles contains karaoke subtitle styling and line-chunking knobs.
type Subtitles struct {
	FontName          string  `toml:"font_name"`
	FontSize          int     `toml:"font_size"`
	MarginV           int     `toml:"margin_v"`
	Outline           int     `toml:"outline"`
	Shadow            int     `toml:"shadow"`
	MaxWordsPerLine   int     `toml:"max_words_per_line"`
	MaxLineSeconds    float64 `toml:"max_line_seconds"`
	MaxWordGapSeconds float64 `toml:"max_word_gap_seconds"`
}

// BGM contains background music mixing configuration.
type BGM struct {
	Enabled bool    `toml:"enabled"`
	File    string  `toml:"file"`
	Volume  float64 `toml:"volume"`
}

// LLM contains connection settings for script and patch generation.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
}

// Tools names the shared external binaries.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Workflow contains orchestrator scheduling knobs.
type Workflow struct {
	SceneWorkers        int `toml:"scene_workers"`
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsmith.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Video     Video     `toml:"video"`
	Images    Images    `toml:"images"`
	TTS       TTS       `toml:"tts"`
	Align     Align     `toml:"align"`
	Subtitles Subtitles `toml:"subtitles"`
	BGM       BGM       `toml:"bgm"`
	LLM       LLM       `toml:"llm"`
	Tools     Tools     `toml:"tools"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

// EnsureDirectories creates the build, versions, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BuildDir, c.Paths.VersionsDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the annotated sample configuration to the given path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// StatePath returns the location of the stage-unit state database.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.LogDir, "state.db")
}

// LockPath returns the lock file guarding concurrent runs on one project.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "reelsmith.lock")
}

// SpecPath returns the path of the working spec document (video.yaml).
func (c *Config) SpecPath() string {
	return filepath.Join(c.Paths.ProjectDir, "video.yaml")
}

// FeedbackPath returns the path of the optional free-text feedback file.
func (c *Config) FeedbackPath() string {
	return filepath.Join(c.Paths.ProjectDir, "feedback.txt")
}

// IdeaPath returns the path of the idea prompt consumed by script generation.
func (c *Config) IdeaPath() string {
	return filepath.Join(c.Paths.ProjectDir, "idea.txt")
}
