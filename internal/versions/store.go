package versions

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/spec"
)

var versionFilePattern = regexp.MustCompile(`^video_v(\d+)\.yaml$`)

// Store persists immutable numbered snapshots of spec documents, one YAML
// file per version under its directory. History is append-only: snapshots
// are never rewritten and never deleted.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore constructs a version store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logging.NewComponentLogger(logger, "version-store")}
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the snapshot location for a version number.
func (s *Store) Path(version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("video_v%d.yaml", version))
}

// Versions returns all persisted version numbers in ascending order.
func (s *Store) Versions() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "versions", "list", s.dir, err)
	}
	var nums []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := versionFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// LatestVersion returns the highest persisted version number.
func (s *Store) LatestVersion() (int, error) {
	nums, err := s.Versions()
	if err != nil {
		return 0, err
	}
	if len(nums) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "versions", "latest", "no versions persisted yet", nil)
	}
	return nums[len(nums)-1], nil
}

// Save validates the document, assigns the next version number, and persists
// an immutable snapshot. The write publishes via hard link so an existing
// snapshot can never be overwritten, even by a racing second run.
func (s *Store) Save(doc spec.Document) (int, error) {
	nums, err := s.Versions()
	if err != nil {
		return 0, err
	}
	next := 1
	if len(nums) > 0 {
		next = nums[len(nums)-1] + 1
	}

	snapshot := doc.Clone()
	snapshot.Version = next
	if err := snapshot.Validate(); err != nil {
		return 0, err
	}

	data, err := spec.Encode(snapshot)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrStorage, "versions", "save", "create versions directory", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".video_v*.yaml.tmp")
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "versions", "save", "create temp snapshot", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, services.Wrap(services.ErrStorage, "versions", "save", "write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, services.Wrap(services.ErrStorage, "versions", "save", "close snapshot", err)
	}

	target := s.Path(next)
	if err := os.Link(tmpName, target); err != nil {
		return 0, services.Wrap(services.ErrStorage, "versions", "save", fmt.Sprintf("publish snapshot v%d", next), err)
	}

	s.logger.Info("spec version persisted", logging.Int(logging.FieldVersion, next), logging.String("path", target))
	return next, nil
}

// Get returns the document persisted under the given version number.
func (s *Store) Get(version int) (spec.Document, error) {
	if version <= 0 {
		return spec.Document{}, services.Wrap(services.ErrNotFound, "versions", "get", fmt.Sprintf("invalid version %d", version), nil)
	}
	doc, err := spec.Load(s.Path(version))
	if err != nil {
		return spec.Document{}, err
	}
	return doc, nil
}

// Latest returns the most recently persisted document.
func (s *Store) Latest() (spec.Document, error) {
	version, err := s.LatestVersion()
	if err != nil {
		return spec.Document{}, err
	}
	return s.Get(version)
}
