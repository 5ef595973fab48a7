package department

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/facultyatlas/entity"
)

// OverrideDepartment pins a known-good department page for an institution.
type OverrideDepartment struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Structure string `yaml:"structure,omitempty"`
}

// Override holds per-institution resolution hints. Departments, when present,
// replace link scanning entirely. IncludePaths and ExcludePaths are doublestar
// globs matched against candidate URL paths during scanning.
type Override struct {
	University   string               `yaml:"university"`
	Departments  []OverrideDepartment `yaml:"departments,omitempty"`
	IncludePaths []string             `yaml:"include_paths,omitempty"`
	ExcludePaths []string             `yaml:"exclude_paths,omitempty"`
}

// AllowsPath reports whether a candidate URL path passes the override's
// include/exclude globs. An empty include list admits everything.
func (o *Override) AllowsPath(path string) bool {
	if o == nil {
		return true
	}
	path = strings.TrimPrefix(path, "/")
	for _, glob := range o.ExcludePaths {
		if ok, _ := doublestar.Match(strings.TrimPrefix(glob, "/"), path); ok {
			return false
		}
	}
	if len(o.IncludePaths) == 0 {
		return true
	}
	for _, glob := range o.IncludePaths {
		if ok, _ := doublestar.Match(strings.TrimPrefix(glob, "/"), path); ok {
			return true
		}
	}
	return false
}

// Table is the set of institution overrides, optionally backed by a YAML file
// that is reloaded when it changes on disk.
type Table struct {
	mu        sync.RWMutex
	overrides []Override
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
	done      chan struct{}
}

// NewTable returns a table seeded with the built-in overrides.
func NewTable(logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{overrides: builtinOverrides(), logger: logger}
}

// LoadFile replaces the file-provided overrides with the contents of path.
// Built-in overrides are kept and shadowed by file entries for the same
// institution.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading overrides file: %w", err)
	}
	var loaded []Override
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing overrides file: %w", err)
	}
	t.mu.Lock()
	t.overrides = append(builtinOverrides(), loaded...)
	t.mu.Unlock()
	t.logger.Info("loaded institution overrides", "path", path, "count", len(loaded))
	return nil
}

// Watch reloads path whenever it is written. Call Close to stop watching.
func (t *Table) Watch(path string) error {
	if err := t.LoadFile(path); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating overrides watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return fmt.Errorf("watching overrides file: %w", err)
	}
	t.watcher = w
	t.done = make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					if err := t.LoadFile(path); err != nil {
						t.logger.Warn("overrides reload failed", "error", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				t.logger.Warn("overrides watcher error", "error", err)
			case <-t.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the file watcher if one is running.
func (t *Table) Close() error {
	if t.watcher == nil {
		return nil
	}
	close(t.done)
	return t.watcher.Close()
}

// Lookup returns the override for an institution, matched on normalized
// institution names. File entries shadow built-ins because they sort later.
func (t *Table) Lookup(universityName string) *Override {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var found *Override
	for i := range t.overrides {
		if entity.InstitutionsMatch(t.overrides[i].University, universityName) {
			found = &t.overrides[i]
		}
	}
	if found == nil {
		return nil
	}
	cp := *found
	return &cp
}

func builtinOverrides() []Override {
	return []Override{
		{
			University: "Stanford University",
			Departments: []OverrideDepartment{
				{Name: "Computer Science", URL: "https://cs.stanford.edu/people/faculty", Structure: "list"},
				{Name: "Electrical Engineering", URL: "https://ee.stanford.edu/people/faculty", Structure: "list"},
			},
		},
		{
			University: "Massachusetts Institute of Technology",
			Departments: []OverrideDepartment{
				{Name: "EECS", URL: "https://www.eecs.mit.edu/role/faculty/", Structure: "grid"},
			},
		},
		{
			University:   "Carnegie Mellon University",
			IncludePaths: []string{"**/people/**", "**/faculty/**", "departments/**"},
		},
	}
}
