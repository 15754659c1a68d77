// Package interview holds the built-in problem catalog used by interview
// mode: problem statements, per-language starter code, test cases and
// the default duration for each difficulty.
package interview

import (
	_ "embed"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
)

type Example struct {
	Input       string `yaml:"input" json:"input"`
	Output      string `yaml:"output" json:"output"`
	Explanation string `yaml:"explanation" json:"explanation,omitempty"`
}

type TestCase struct {
	Input          string `yaml:"input" json:"input"`
	ExpectedOutput string `yaml:"expected_output" json:"expectedOutput"`
}

type Problem struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Difficulty  string            `yaml:"difficulty" json:"difficulty"`
	Description string            `yaml:"description" json:"description"`
	Examples    []Example         `yaml:"examples" json:"examples"`
	Constraints []string          `yaml:"constraints" json:"constraints,omitempty"`
	StarterCode map[string]string `yaml:"starter_code" json:"starterCode"`
	TestCases   []TestCase        `yaml:"test_cases" json:"testCases"`
}

// Starter returns the starter code for a language, or "" if the problem
// has none.
func (p Problem) Starter(lang string) string {
	return p.StarterCode[lang]
}

type Catalog struct {
	Durations map[string]time.Duration `yaml:"durations"`
	Problems  []Problem                `yaml:"problems"`

	byID map[string]int
}

// Default parses the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(builtin)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse interview catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.byID = make(map[string]int, len(c.Problems))
	for i, p := range c.Problems {
		c.byID[p.ID] = i
	}
	return &c, nil
}

// Validate checks ids are unique and difficulties are known.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Problems))
	for i, p := range c.Problems {
		if p.ID == "" {
			return fmt.Errorf("problem %d: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("problem %q: duplicate id", p.ID)
		}
		seen[p.ID] = true

		switch p.Difficulty {
		case Easy, Medium, Hard:
		default:
			return fmt.Errorf("problem %q: unknown difficulty %q (supported: easy, medium, hard)", p.ID, p.Difficulty)
		}
	}

	for level, d := range c.Durations {
		if d <= 0 {
			return fmt.Errorf("duration for %q must be positive", level)
		}
	}
	return nil
}

func (c *Catalog) Get(id string) (Problem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Problem{}, false
	}
	return c.Problems[i], true
}

// List returns the problems of one difficulty, or all of them when
// difficulty is empty, ordered by id.
func (c *Catalog) List(difficulty string) []Problem {
	var out []Problem
	for _, p := range c.Problems {
		if difficulty == "" || p.Difficulty == difficulty {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Duration is the default length of an interview at the given
// difficulty. Unknown levels get the medium duration.
func (c *Catalog) Duration(difficulty string) time.Duration {
	if d, ok := c.Durations[difficulty]; ok {
		return d
	}
	if d, ok := c.Durations[Medium]; ok {
		return d
	}
	return 30 * time.Minute
}
