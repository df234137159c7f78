package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	domain "shotbuzz/internal/domain/project"
)

// Source supplies the dashboard's project list.
type Source interface {
	// Projects returns a fresh copy of the current list.
	Projects() []domain.Project
}

// StaticSource serves a fixed list.
type StaticSource struct {
	projects []domain.Project
}

// NewStaticSource creates a source over projects; nil means the built-in seed.
func NewStaticSource(projects []domain.Project) *StaticSource {
	if projects == nil {
		projects = domain.DefaultSeed()
	}
	return &StaticSource{projects: projects}
}

// Projects returns a copy of the fixed list.
func (s *StaticSource) Projects() []domain.Project {
	return append([]domain.Project(nil), s.projects...)
}

// file is the on-disk layout of a project seed file.
type file struct {
	Projects []domain.Project `yaml:"projects"`
}

// LoadFile reads and validates a YAML project file.
// PRE: path names a readable file
// POST: Every project is classified and validated, or an error names the first bad entry
func LoadFile(path string) ([]domain.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	for i := range f.Projects {
		if err := f.Projects[i].Validate(); err != nil {
			return nil, fmt.Errorf("project %d: %w", i, err)
		}
		f.Projects[i].Classify()
	}
	if f.Projects == nil {
		f.Projects = []domain.Project{}
	}
	return f.Projects, nil
}

// DefaultDebounce is how long FileSource waits for writes to settle before reloading.
const DefaultDebounce = 250 * time.Millisecond

// FileSource serves projects from a YAML file and reloads it when it changes.
// Readers never block; a reload swaps the whole list atomically.
type FileSource struct {
	path     string
	debounce time.Duration
	current  atomic.Pointer[[]domain.Project]
	reloads  atomic.Int64
}

// NewFileSource loads path once.
// PRE: path names a valid project file
// POST: Returns a source serving the file's projects, or the load error
func NewFileSource(path string) (*FileSource, error) {
	projects, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s := &FileSource{path: path, debounce: DefaultDebounce}
	s.current.Store(&projects)
	return s, nil
}

// Projects returns a copy of the most recently loaded list.
func (s *FileSource) Projects() []domain.Project {
	return append([]domain.Project(nil), (*s.current.Load())...)
}

// Reloads returns how many successful reloads have happened since start.
func (s *FileSource) Reloads() int64 {
	return s.reloads.Load()
}

// Reload re-reads the file. On error the previous list stays in place.
func (s *FileSource) Reload() error {
	projects, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(&projects)
	s.reloads.Add(1)
	slog.Info("projects_reloaded", "path", s.path, "count", len(projects))
	return nil
}

// Watch reloads the file on change until ctx is done.
// The parent directory is watched so editors that replace the file by rename are seen.
// PRE: ctx is valid
// POST: Returns once the watcher is running; the watch goroutine exits with ctx
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	go s.processEvents(ctx, w)
	return nil
}

func (s *FileSource) processEvents(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()
	target := filepath.Clean(s.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(s.debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Error("project_watch_error", "path", s.path, "error", err)

		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				slog.Warn("projects_reload_failed", "path", s.path, "error", err)
			}
		}
	}
}
