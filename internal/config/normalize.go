package config

import (
	"path/filepath"
	"strings"
)

// normalize expands the project directory and resolves relative path fields
// against it so the rest of the system only ever sees absolute paths.
func (c *Config) normalize() error {
	projectDir, err := expandPath(c.Paths.ProjectDir)
	if err != nil {
		return err
	}
	if projectDir == "" {
		projectDir, err = filepath.Abs(".")
		if err != nil {
			return err
		}
	}
	c.Paths.ProjectDir = projectDir

	for _, field := range []*string{&c.Paths.BuildDir, &c.Paths.VersionsDir, &c.Paths.LogDir} {
		resolved, err := resolveAgainst(projectDir, *field)
		if err != nil {
			return err
		}
		*field = resolved
	}

	if c.BGM.File != "" {
		resolved, err := resolveAgainst(projectDir, c.BGM.File)
		if err != nil {
			return err
		}
		c.BGM.File = resolved
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func resolveAgainst(base, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if strings.HasPrefix(trimmed, "~") {
		return expandPath(trimmed)
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed), nil
	}
	return filepath.Join(base, trimmed), nil
}
