// Package config loads interview definitions from YAML documents. A top
// level config names interviews inline or by path; paths may point at a
// single interview file or a directory of them. Question templates are kept
// in document order so the resolver's candidate order matches the author's.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// Config holds every loaded interview, keyed by id.
type Config struct {
	Interviews map[string]*interview.Interview
}

// Load reads a top-level config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Interviews []yaml.Node `yaml:"interviews"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := &Config{Interviews: make(map[string]*interview.Interview)}
	baseDir := filepath.Dir(path)
	for i, entry := range doc.Interviews {
		if err := cfg.addEntry(baseDir, entry); err != nil {
			return nil, fmt.Errorf("%s: interview entry %d: %w", path, i, err)
		}
	}
	return cfg, nil
}

// addEntry handles one interviews list element: an inline interview object
// or a path to a file or directory.
func (c *Config) addEntry(baseDir string, entry yaml.Node) error {
	if entry.Kind == yaml.ScalarNode {
		var rel string
		if err := entry.Decode(&rel); err != nil {
			return err
		}
		return c.addPath(filepath.Join(baseDir, rel))
	}

	var obj struct {
		ID        string      `yaml:"id"`
		Questions []yaml.Node `yaml:"questions"`
		Steps     []any       `yaml:"steps"`
	}
	if err := entry.Decode(&obj); err != nil {
		return err
	}
	if obj.ID == "" {
		return fmt.Errorf("inline interview is missing an id")
	}
	iv, err := buildInterview(baseDir, obj.Questions, obj.Steps)
	if err != nil {
		return fmt.Errorf("interview %s: %w", obj.ID, err)
	}
	c.Interviews[obj.ID] = iv
	return nil
}

func (c *Config) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return c.addFile(path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isYAML(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.addFile(filepath.Join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

// addFile loads one interview file; its id is the file name without the
// extension.
func (c *Config) addFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		Questions []yaml.Node `yaml:"questions"`
		Steps     []any       `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	iv, err := buildInterview(filepath.Dir(path), doc.Questions, doc.Steps)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	name := filepath.Base(path)
	id := strings.TrimSuffix(name, filepath.Ext(name))
	c.Interviews[id] = iv
	return nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}

func buildInterview(baseDir string, questionNodes []yaml.Node, rawSteps []any) (*interview.Interview, error) {
	iv := &interview.Interview{
		Questions: make(map[string]*input.QuestionTemplate),
	}
	for i, node := range questionNodes {
		if err := addQuestions(iv, baseDir, node); err != nil {
			return nil, fmt.Errorf("question entry %d: %w", i, err)
		}
	}
	steps, err := interview.DecodeSteps(rawSteps)
	if err != nil {
		return nil, err
	}
	iv.Steps = steps
	return iv, nil
}

// addQuestions handles one questions list element: an inline question
// object or a path to a file mapping ids to templates.
func addQuestions(iv *interview.Interview, baseDir string, node yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var rel string
		if err := node.Decode(&rel); err != nil {
			return err
		}
		return addQuestionFile(iv, filepath.Join(baseDir, rel))
	}

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	tmpl, err := input.DecodeQuestionTemplate(raw)
	if err != nil {
		return err
	}
	return addQuestion(iv, tmpl)
}

// addQuestionFile loads a mapping of id to question template, preserving
// the document's mapping order.
func addQuestionFile(iv *interview.Interview, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: expected a mapping of question ids to templates", path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		var id string
		if err := root.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		var body map[string]any
		if err := root.Content[i+1].Decode(&body); err != nil {
			return fmt.Errorf("%s: question %s: %w", path, id, err)
		}
		body["id"] = id
		tmpl, err := input.DecodeQuestionTemplate(body)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := addQuestion(iv, tmpl); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func addQuestion(iv *interview.Interview, tmpl *input.QuestionTemplate) error {
	if _, exists := iv.Questions[tmpl.ID]; exists {
		return fmt.Errorf("duplicate question id %q", tmpl.ID)
	}
	iv.Questions[tmpl.ID] = tmpl
	iv.QuestionOrder = append(iv.QuestionOrder, tmpl.ID)
	return nil
}
