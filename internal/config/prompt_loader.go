package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LoadedPromptSet holds prompt content read from files
type LoadedPromptSet struct {
	ExtractResume         string
	ExtractJobDescription string
	ScoreResume           string
	RescoreResume         string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedPromptSet
	UserPrompts   LoadedPromptSet
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global  OperationLoadedPrompts
	Extract OperationLoadedPrompts
	Score   OperationLoadedPrompts
}

// The store is swapped wholesale so a reload never exposes a half-loaded set.
var (
	loadedPromptsMu sync.RWMutex
	loadedPrompts   AllLoadedPrompts
)

// GetPromptsForOperation returns a copy of the loaded prompts for an operation
func GetPromptsForOperation(operation string) OperationLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()

	switch operation {
	case OperationExtract:
		return loadedPrompts.Extract
	case OperationScore:
		return loadedPrompts.Score
	default:
		return loadedPrompts.Global
	}
}

// ReloadPrompts re-reads every configured prompt file. On failure the
// previously loaded prompts stay in place.
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}
	return c.loadPromptsFromFiles()
}

// PromptFiles lists every prompt file referenced by the configuration
func (c *Config) PromptFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, set := range c.promptSets() {
		for _, entry := range promptFileEntries(set.prompts, nil) {
			if entry.file == "" || seen[entry.file] {
				continue
			}
			seen[entry.file] = true
			files = append(files, entry.file)
		}
	}
	sort.Strings(files)
	return files
}

type namedPromptSet struct {
	scope   string
	kind    string
	prompts PromptSet
}

// promptSets lists the global and merged per-operation prompt sets
func (c *Config) promptSets() []namedPromptSet {
	extract := c.GetExtractConfig().CustomPrompts
	score := c.GetScoreConfig().CustomPrompts
	return []namedPromptSet{
		{"global", "system", c.AI.CustomPrompts.SystemPrompts},
		{"global", "user", c.AI.CustomPrompts.UserPrompts},
		{OperationExtract, "system", extract.SystemPrompts},
		{OperationExtract, "user", extract.UserPrompts},
		{OperationScore, "system", score.SystemPrompts},
		{OperationScore, "user", score.UserPrompts},
	}
}

type promptFileEntry struct {
	name   string
	file   string
	target *string
}

func promptFileEntries(set PromptSet, target *LoadedPromptSet) []promptFileEntry {
	if target == nil {
		target = &LoadedPromptSet{}
	}
	return []promptFileEntry{
		{"extractResume", set.ExtractResumeFile, &target.ExtractResume},
		{"extractJobDescription", set.ExtractJobDescriptionFile, &target.ExtractJobDescription},
		{"scoreResume", set.ScoreResumeFile, &target.ScoreResume},
		{"rescoreResume", set.RescoreResumeFile, &target.RescoreResume},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	var next AllLoadedPrompts
	targets := map[string]*OperationLoadedPrompts{
		"global":         &next.Global,
		OperationExtract: &next.Extract,
		OperationScore:   &next.Score,
	}

	for _, set := range c.promptSets() {
		target := &targets[set.scope].SystemPrompts
		if set.kind == "user" {
			target = &targets[set.scope].UserPrompts
		}
		for _, entry := range promptFileEntries(set.prompts, target) {
			if entry.file == "" {
				continue
			}
			content, err := c.loadPromptFromFile(entry.file, set.kind, entry.name)
			if err != nil {
				return fmt.Errorf("failed to load %s %s prompts: %w", set.scope, set.kind, err)
			}
			*entry.target = content
		}
	}

	loadedPromptsMu.Lock()
	loadedPrompts = next
	loadedPromptsMu.Unlock()

	logPromptLoadingSummary(next)

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, set := range c.promptSets() {
		for _, entry := range promptFileEntries(set.prompts, nil) {
			if entry.file == "" {
				continue
			}
			absPath, err := filepath.Abs(entry.file)
			if err != nil {
				validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s %s prompt: %s", set.scope, set.kind, entry.name, entry.file))
				continue
			}
			if _, err := os.Stat(absPath); os.IsNotExist(err) {
				validationErrors = append(validationErrors, fmt.Sprintf("%s %s %s prompt file not found: %s", set.scope, set.kind, entry.name, absPath))
			}
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func logPromptLoadingSummary(all AllLoadedPrompts) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	count := 0
	for _, op := range []OperationLoadedPrompts{all.Global, all.Extract, all.Score} {
		for _, set := range []LoadedPromptSet{op.SystemPrompts, op.UserPrompts} {
			for _, content := range []string{set.ExtractResume, set.ExtractJobDescription, set.ScoreResume, set.RescoreResume} {
				if content != "" {
					count++
				}
			}
		}
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
	log.Println("[CONFIG] ==========================================")
}
