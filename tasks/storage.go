// Package tasks persists analysis tasks as JSON files under a data
// directory, one file per task, so results survive restarts and can be
// polled after the fact.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seo-insight/backend/analyzer"
	"github.com/seo-insight/backend/audit"
	"github.com/seo-insight/backend/recommend"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Results bundles everything produced by one analysis run.
type Results struct {
	Analysis        analyzer.Analysis         `json:"analysis"`
	Audit           audit.Scores              `json:"audit"`
	Recommendations recommend.Recommendations `json:"recommendations"`
}

// Task is one analysis request and, once finished, its outcome.
type Task struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	URL       string    `json:"url"`
	Keywords  []string  `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Results   *Results  `json:"results,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ErrNotFound is returned when no task exists for an ID.
var ErrNotFound = errors.New("task not found")

// Store keeps tasks in memory and mirrors every change to disk.
type Store struct {
	mutex sync.RWMutex
	tasks map[string]*Task
	dir   string
}

// NewStore creates the data directory if needed and loads any tasks
// persisted by a previous run.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		tasks: make(map[string]*Task),
		dir:   dataDir,
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return s, nil
}

// Create registers a new in-progress task and persists it immediately.
func (s *Store) Create(url string, keywords []string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.NewString(),
		Status:    StatusInProgress,
		URL:       url,
		Keywords:  keywords,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.tasks[task.ID] = task
	s.mutex.Unlock()

	if err := s.save(task); err != nil {
		return nil, err
	}
	return task.clone(), nil
}

// Get returns the task for the given ID.
func (s *Store) Get(id string) (*Task, error) {
	s.mutex.RLock()
	task, found := s.tasks[id]
	s.mutex.RUnlock()

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return task.clone(), nil
}

// Complete records the results and marks the task completed.
func (s *Store) Complete(id string, results *Results) (*Task, error) {
	return s.update(id, func(task *Task) {
		task.Status = StatusCompleted
		task.Results = results
		task.Error = ""
	})
}

// Fail marks the task failed with the given cause.
func (s *Store) Fail(id string, cause string) (*Task, error) {
	return s.update(id, func(task *Task) {
		task.Status = StatusFailed
		task.Error = cause
	})
}

func (s *Store) update(id string, apply func(*Task)) (*Task, error) {
	s.mutex.Lock()
	task, found := s.tasks[id]
	if !found {
		s.mutex.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	apply(task)
	task.UpdatedAt = time.Now().UTC()
	s.mutex.Unlock()

	if err := s.save(task); err != nil {
		return nil, err
	}
	return task.clone(), nil
}

// Cleanup deletes finished tasks older than maxAge, both from memory and
// from disk, and reports how many were removed.
func (s *Store) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0

	s.mutex.Lock()
	for id, task := range s.tasks {
		if task.Status == StatusInProgress || task.UpdatedAt.After(cutoff) {
			continue
		}
		delete(s.tasks, id)
		os.Remove(s.taskPath(id))
		removed++
	}
	s.mutex.Unlock()

	return removed
}

// save writes the task to a temporary file and renames it into place so
// readers never observe a partial write.
func (s *Store) save(task *Task) error {
	s.mutex.RLock()
	data, err := json.Marshal(task)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
	}

	path := s.taskPath(task.ID)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename task file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "task_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return err
		}

		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("corrupt task file %s: %w", name, err)
		}
		s.tasks[task.ID] = &task
	}
	return nil
}

func (s *Store) taskPath(id string) string {
	return filepath.Join(s.dir, "task_"+id+".json")
}

// clone returns a copy safe to hand to callers. Results are treated as
// immutable once written, so the pointer is shared.
func (t *Task) clone() *Task {
	copied := *t
	copied.Keywords = append([]string(nil), t.Keywords...)
	return &copied
}
