package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInlineInterview(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
interviews:
  - id: registration
    questions:
      - id: q-name
        title: Your name
        fields:
          - type: text
            set: name
    steps:
      - ask: q-name
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Interviews, "registration")

	iv := cfg.Interviews["registration"]
	assert.Equal(t, []string{"q-name"}, iv.QuestionOrder)
	assert.Len(t, iv.Steps, 1)
}

func TestLoadInterviewFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "signup.yml", `
questions:
  - questions.yml
steps:
  - ask: q-first
  - ask: q-last
`)
	// mapping order in the file decides question order
	writeFile(t, dir, "questions.yml", `
q-first:
  fields:
    - type: text
      set: first_name
q-last:
  fields:
    - type: text
      set: last_name
`)
	path := writeFile(t, dir, "config.yml", `
interviews:
  - signup.yml
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Interviews, "signup")

	iv := cfg.Interviews["signup"]
	assert.Equal(t, []string{"q-first", "q-last"}, iv.QuestionOrder)
	assert.Equal(t, "q-first", iv.Questions["q-first"].ID)
	assert.Len(t, iv.Steps, 2)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "interviews/a.yml", `
questions:
  - id: qa
    fields:
      - type: text
        set: a
steps:
  - ask: qa
`)
	writeFile(t, dir, "interviews/b.yaml", `
steps: []
`)
	writeFile(t, dir, "interviews/ignored.txt", "not yaml")
	path := writeFile(t, dir, "config.yml", `
interviews:
  - interviews
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Interviews, 2)
	assert.Contains(t, cfg.Interviews, "a")
	assert.Contains(t, cfg.Interviews, "b")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(dir, "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		path := writeFile(t, dir, "noid.yml", `
interviews:
  - questions: []
    steps: []
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "missing an id")
	})

	t.Run("duplicate question", func(t *testing.T) {
		path := writeFile(t, dir, "dup.yml", `
interviews:
  - id: dup
    questions:
      - id: q1
        fields:
          - type: text
            set: a
      - id: q1
        fields:
          - type: text
            set: b
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "duplicate question id")
	})

	t.Run("bad step", func(t *testing.T) {
		path := writeFile(t, dir, "badstep.yml", `
interviews:
  - id: bad
    steps:
      - jump: somewhere
`)
		_, err := config.Load(path)
		assert.ErrorContains(t, err, "invalid step")
	})
}
