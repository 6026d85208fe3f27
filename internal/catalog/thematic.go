package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"digitalmaturity/internal/model"

	"gopkg.in/yaml.v3"
)

// Thematic questionnaire names, as used in the /questions-<name> routes
const (
	Governance = "governance"
	ISO56002   = "iso56002"
)

// ErrUnknownCatalog is returned for a thematic questionnaire that is not built in
var ErrUnknownCatalog = errors.New("unknown questionnaire")

//go:embed governance.yaml
var governanceYAML []byte

//go:embed iso56002.yaml
var iso56002YAML []byte

type thematicFile struct {
	Categories []string         `yaml:"categories"`
	Questions  []model.Question `yaml:"questions"`
}

type thematicEntry struct {
	data []byte
	once sync.Once
	cat  *model.ThematicCatalog
	err  error
}

var thematic = map[string]*thematicEntry{
	Governance: {data: governanceYAML},
	ISO56002:   {data: iso56002YAML},
}

// ThematicNames lists the built-in thematic questionnaires
func ThematicNames() []string {
	return []string{Governance, ISO56002}
}

// Thematic returns a copy of the named thematic questionnaire
func Thematic(name string) (*model.ThematicCatalog, error) {
	e, ok := thematic[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCatalog, name)
	}
	e.once.Do(func() {
		e.cat, e.err = ParseThematic(name, e.data)
	})
	if e.err != nil {
		return nil, e.err
	}
	out := *e.cat
	out.Questions = append([]model.Question(nil), e.cat.Questions...)
	out.Categories = append([]string(nil), e.cat.Categories...)
	return &out, nil
}

// ParseThematic decodes a thematic questionnaire. Questions are validated
// like level 1 and must belong to a declared category; without a category
// list the categories follow first appearance.
func ParseThematic(name string, data []byte) (*model.ThematicCatalog, error) {
	var f thematicFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", name, err)
	}
	if err := validateScored(name, f.Questions); err != nil {
		return nil, err
	}
	SortQuestions(f.Questions)

	if len(f.Categories) == 0 {
		f.Categories = Categories(f.Questions)
	}
	declared := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		declared[c] = true
	}
	for _, q := range f.Questions {
		if !declared[q.Category] {
			return nil, fmt.Errorf("%s catalog: question %d has undeclared category %q", name, q.ID, q.Category)
		}
	}
	return &model.ThematicCatalog{
		Name:       name,
		Questions:  f.Questions,
		Categories: f.Categories,
		Total:      len(f.Questions),
	}, nil
}
