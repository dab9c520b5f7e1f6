// Package stages holds the ordered narrative arc vocabulary.
package stages

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var defaultStages = []string{
	"introduction",
	"rising_action",
	"conflict",
	"climax",
	"falling_action",
	"resolution",
}

// Vocabulary is an ordered list of arc stages. Earlier stages rank lower.
type Vocabulary struct {
	order []string
	rank  map[string]int
}

func Default() *Vocabulary {
	v, _ := New(defaultStages)
	return v
}

func New(stages []string) (*Vocabulary, error) {
	v := &Vocabulary{rank: make(map[string]int, len(stages))}
	for _, s := range stages {
		key := Normalize(s)
		if key == "" {
			return nil, errors.New("empty stage name")
		}
		if _, dup := v.rank[key]; dup {
			return nil, fmt.Errorf("duplicate stage %q", key)
		}
		v.rank[key] = len(v.order)
		v.order = append(v.order, key)
	}
	if len(v.order) == 0 {
		return nil, errors.New("stage vocabulary is empty")
	}
	return v, nil
}

type fileFormat struct {
	Stages []string `yaml:"stages"`
}

// Load reads a YAML file of the form `stages: [a, b, ...]`. An empty path returns the default.
func Load(path string) (*Vocabulary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage vocabulary: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Vocabulary, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse stage vocabulary: %w", err)
	}
	return New(f.Stages)
}

// Normalize maps "Rising Action" and "rising-action" to "rising_action".
func Normalize(stage string) string {
	s := strings.ToLower(strings.TrimSpace(stage))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// Rank returns the position of stage, or false when it is not in the vocabulary.
func (v *Vocabulary) Rank(stage string) (int, bool) {
	r, ok := v.rank[Normalize(stage)]
	return r, ok
}

func (v *Vocabulary) Valid(stage string) bool {
	_, ok := v.Rank(stage)
	return ok
}

func (v *Vocabulary) First() string { return v.order[0] }

func (v *Vocabulary) Stages() []string {
	return append([]string(nil), v.order...)
}
