// Package store keeps timestamped saves of project documents, one folder
// per project.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ztrkr/config"
	"ztrkr/sequencer"
)

const timestampLayout = "2006-01-02_15-04-05"

// ErrNoSaves is returned when a project folder has nothing to load.
var ErrNoSaves = errors.New("no saves found")

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Store is a directory of project folders.
type Store struct {
	Dir string
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{Dir: dir, now: time.Now}
}

// Default opens the store under the config directory.
func Default() (*Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return New(filepath.Join(dir, "projects")), nil
}

func (s *Store) projectDir(name string) string {
	return filepath.Join(s.Dir, sanitizeFilename(name))
}

// ListProjects returns all project folder names, sorted.
func (s *Store) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	projects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first.
func (s *Store) ListSaves(project string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(s.projectDir(project))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	saves := []SaveInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}
	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// parseSaveName reads 2006-01-02_15-04-05.json or 2006-01-02_15-04-05_name.json.
func parseSaveName(filename string) (SaveInfo, bool) {
	base, ok := strings.CutSuffix(filename, ".json")
	if !ok || len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	info := SaveInfo{Filename: filename, Timestamp: ts}
	if rest := base[len(timestampLayout):]; strings.HasPrefix(rest, "_") {
		info.Name = rest[1:]
	}
	return info, true
}

// Save writes p as a new timestamped save of project and returns its
// filename. name, if given, is appended to the timestamp.
func (s *Store) Save(project, name string, p *sequencer.Project) (string, error) {
	if project == "" {
		project = "untitled"
	}
	data, err := sequencer.EncodeProject(p)
	if err != nil {
		return "", err
	}
	dir := s.projectDir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := s.now().Format(timestampLayout)
	if name != "" {
		filename += "_" + sanitizeFilename(name)
	}
	filename += ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// Load reads a save of project; an empty filename loads the newest.
func (s *Store) Load(project, filename string) (*sequencer.Project, error) {
	if filename == "" {
		saves, err := s.ListSaves(project)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fmt.Errorf("%w in project %s", ErrNoSaves, project)
		}
		filename = saves[0].Filename
	}
	data, err := os.ReadFile(filepath.Join(s.projectDir(project), filename))
	if err != nil {
		return nil, err
	}
	p, err := sequencer.DecodeProject(data)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", project, filename, err)
	}
	return p, nil
}

// CreateProject creates a new empty project folder
func (s *Store) CreateProject(name string) error {
	return os.MkdirAll(s.projectDir(name), 0755)
}

// DeleteSave deletes a specific save file
func (s *Store) DeleteSave(project, filename string) error {
	return os.Remove(filepath.Join(s.projectDir(project), filepath.Base(filename)))
}

// RenameSave changes the name part of a save, keeping its timestamp.
func (s *Store) RenameSave(project, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}
	newFilename := info.Timestamp.Format(timestampLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".json"

	dir := s.projectDir(project)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

// DeleteProject deletes entire project folder
func (s *Store) DeleteProject(name string) error {
	return os.RemoveAll(s.projectDir(name))
}

// RenameProject renames a project folder
func (s *Store) RenameProject(oldName, newName string) error {
	return os.Rename(s.projectDir(oldName), s.projectDir(newName))
}

var filenameReplacer = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-",
	"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}
