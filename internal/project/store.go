// Package project persists track definitions by project identifier. The
// engine has no opinion on storage beyond the stored triple; this store keeps
// one YAML document per project in a directory.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is the persisted triple: the raw definition string, its tempo, and
// free-text notes.
type Project struct {
	Definition string `yaml:"definition"`
	BPM        int    `yaml:"bpm"`
	Notes      string `yaml:"notes,omitempty"`
}

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the project under the given identifier, replacing any previous
// version.
func (s *Store) Save(id string, p Project) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project %q: %w", id, err)
	}
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return fmt.Errorf("save project %q: %w", id, err)
	}
	return nil
}

// Load reads a project back. A failed load returns an error and nothing
// else; callers keep whatever definitions they already had.
func (s *Store) Load(id string) (Project, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return Project{}, fmt.Errorf("load project %q: %w", id, err)
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("decode project %q: %w", id, err)
	}
	return p, nil
}

// List returns the stored project identifiers in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, sanitize(id)+".yaml")
}

// sanitize keeps identifiers filesystem-safe; anything else becomes an
// underscore. Empty ids map to "untitled".
func sanitize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "untitled"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
