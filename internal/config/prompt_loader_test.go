package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	dir := t.TempDir()
	globalUser := writePrompt(t, dir, "extract-resume.md", "  Pull the resume fields.\n")
	scoreSystem := writePrompt(t, dir, "score-system.md", "You grade resumes.")

	cfg := validConfig()
	cfg.AI.CustomPrompts.UserPrompts.ExtractResumeFile = globalUser
	cfg.AI.Score.CustomPrompts.SystemPrompts.ScoreResumeFile = scoreSystem

	require.NoError(t, cfg.loadPromptsFromFiles())

	extract := GetPromptsForOperation(OperationExtract)
	assert.Equal(t, "Pull the resume fields.", extract.UserPrompts.ExtractResume, "global file flows to the operation, trimmed")
	assert.Empty(t, extract.SystemPrompts.ScoreResume)

	score := GetPromptsForOperation(OperationScore)
	assert.Equal(t, "You grade resumes.", score.SystemPrompts.ScoreResume)
	assert.Equal(t, "Pull the resume fields.", score.UserPrompts.ExtractResume)

	global := GetPromptsForOperation("unknown")
	assert.Equal(t, "Pull the resume fields.", global.UserPrompts.ExtractResume)
	assert.Empty(t, global.SystemPrompts.ScoreResume)

	assert.Equal(t, []string{globalUser, scoreSystem}, cfg.PromptFiles())
}

func TestLoadPromptFromFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}

	content, err := cfg.loadPromptFromFile(writePrompt(t, dir, "ok.md", "Rescore kindly."), "user", "rescoreResume")
	require.NoError(t, err)
	assert.Equal(t, "Rescore kindly.", content)

	_, err = cfg.loadPromptFromFile(writePrompt(t, dir, "blank.md", " \n\t"), "user", "rescoreResume")
	assert.ErrorContains(t, err, "is empty")

	_, err = cfg.loadPromptFromFile(filepath.Join(dir, "missing.md"), "user", "rescoreResume")
	assert.ErrorContains(t, err, "prompt file not found")
}

func TestValidatePromptFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.AI.Extract.CustomPrompts.SystemPrompts.ExtractJobDescriptionFile = writePrompt(t, dir, "jd.md", "Find requirements.")
	require.NoError(t, cfg.validatePromptFiles())

	cfg.AI.Extract.CustomPrompts.SystemPrompts.ExtractJobDescriptionFile = filepath.Join(dir, "gone.md")
	err := cfg.validatePromptFiles()
	assert.ErrorContains(t, err, "extract system extractJobDescription prompt file not found")
}

func TestReloadPromptsKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writePrompt(t, dir, "rescore.md", "first version")

	cfg := validConfig()
	cfg.AI.Score.CustomPrompts.UserPrompts.RescoreResumeFile = path
	require.NoError(t, cfg.ReloadPrompts())
	assert.Equal(t, "first version", GetPromptsForOperation(OperationScore).UserPrompts.RescoreResume)

	require.NoError(t, os.WriteFile(path, []byte(""), 0600))
	assert.Error(t, cfg.ReloadPrompts())
	assert.Equal(t, "first version", GetPromptsForOperation(OperationScore).UserPrompts.RescoreResume)

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0600))
	require.NoError(t, cfg.ReloadPrompts())
	assert.Equal(t, "second version", GetPromptsForOperation(OperationScore).UserPrompts.RescoreResume)
}
