package quest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Template is a catalog entry a player can accept to create a Quest.
//
// Precondition: ID, Kind, and Title must be non-zero after loading.
type Template struct {
	ID           string       `yaml:"id" json:"id"`
	Kind         Kind         `yaml:"kind" json:"kind"`
	Title        string       `yaml:"title" json:"title"`
	Description  string       `yaml:"description" json:"description"`
	Requirements Requirements `yaml:"requirements" json:"requirements"`
	Exercises    []Exercise   `yaml:"exercises" json:"exercises"`
}

// Instantiate creates an unsaved Quest for playerID from the template.
//
// Postcondition: Every exercise has a fresh ID and Done == false.
func (t *Template) Instantiate(playerID int64, date time.Time) *Quest {
	exercises := make([]Exercise, len(t.Exercises))
	for i, e := range t.Exercises {
		exercises[i] = Exercise{Name: e.Name, Quantity: e.Quantity}
	}
	q := &Quest{
		PlayerID:     playerID,
		Kind:         t.Kind,
		Title:        t.Title,
		Description:  t.Description,
		Date:         date,
		Requirements: t.Requirements,
		Exercises:    exercises,
	}
	q.AssignExerciseIDs()
	return q
}

// LoadTemplates reads all .yaml files in dir and parses each as a Template.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed templates sorted by ID or a non-nil error.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading quest directory %s: %w", dir, err)
	}
	templates := make([]*Template, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var t Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing quest file %s: %w", path, err)
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("quest file %s: %w", path, err)
		}
		templates = append(templates, &t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

func (t *Template) validate() error {
	if t.ID == "" {
		return fmt.Errorf("template id must not be empty")
	}
	return t.Instantiate(0, time.Time{}).Validate()
}

// Catalog indexes quest templates by ID.
type Catalog struct {
	templates []*Template
	byID      map[string]*Template
}

// NewCatalog builds a Catalog.
//
// Precondition: template IDs must be unique.
// Postcondition: Returns a Catalog or an error naming the first duplicate ID.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{
		templates: templates,
		byID:      make(map[string]*Template, len(templates)),
	}
	for _, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate quest template id %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	return c, nil
}

// Get returns the template with the given ID.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// All returns every template in catalog order.
func (c *Catalog) All() []*Template {
	return c.templates
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.templates)
}
