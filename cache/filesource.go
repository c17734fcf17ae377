package cache

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/maralorn/taskhook/hook"
	"github.com/maralorn/taskhook/task"
)

// FileSource is a Source backed by a task export file: a JSON array of task
// objects, the format the tool's export command writes and its import
// command reads. It uses an afero.Fs so tests can run against an in-memory
// filesystem.
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource over the given filesystem.
// Use afero.NewMemMapFs() for testing.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// NewOsFileSource creates a FileSource on the real filesystem.
func NewOsFileSource(path string) *FileSource {
	return NewFileSource(afero.NewOsFs(), path)
}

// Query reads the export file and returns its tasks, skipping ignored
// states. A missing file reads as empty.
func (s *FileSource) Query(ignore []task.Status) ([]task.Task, error) {
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	ignored := make(map[task.Status]struct{}, len(ignore))
	for _, st := range ignore {
		ignored[st] = struct{}{}
	}
	var out []task.Task
	for _, t := range all {
		if _, skip := ignored[t.Status]; skip {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Save merges the given tasks into the export file by uuid: existing records
// are replaced in place, new ones appended.
func (s *FileSource) Save(tasks []task.Task) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	byUUID := make(map[string]int, len(all))
	for i, t := range all {
		if t.UUID != nil {
			byUUID[t.UUID.String()] = i
		}
	}
	for _, t := range tasks {
		if t.UUID == nil {
			return fmt.Errorf("cannot save task %q without a uuid", t.Description)
		}
		if i, ok := byUUID[t.UUID.String()]; ok {
			all[i] = t
		} else {
			byUUID[t.UUID.String()] = len(all)
			all = append(all, t)
		}
	}
	data, err := hook.EncodeTasks(all)
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path, data, 0o644)
}

func (s *FileSource) readAll() ([]task.Task, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	tasks, err := hook.DecodeTasks(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return tasks, nil
}
