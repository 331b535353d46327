package config

// Operation names used for per-operation configuration and prompt lookup
const (
	OperationExtract = "extract"
	OperationScore   = "score"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
	if opCfg.ModelCheckTimeout <= 0 {
		opCfg.ModelCheckTimeout = c.AI.ModelCheckTimeout
	}
}

// mergePromptSet fills empty entries of dst from the global set
func mergePromptSet(dst *PromptSet, global PromptSet) {
	fill := func(target *string, fallback string) {
		if *target == "" {
			*target = fallback
		}
	}
	fill(&dst.ExtractResume, global.ExtractResume)
	fill(&dst.ExtractResumeFile, global.ExtractResumeFile)
	fill(&dst.ExtractJobDescription, global.ExtractJobDescription)
	fill(&dst.ExtractJobDescriptionFile, global.ExtractJobDescriptionFile)
	fill(&dst.ScoreResume, global.ScoreResume)
	fill(&dst.ScoreResumeFile, global.ScoreResumeFile)
	fill(&dst.RescoreResume, global.RescoreResume)
	fill(&dst.RescoreResumeFile, global.RescoreResumeFile)
}

// GetExtractConfig returns the AI configuration for extraction with fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract
	c.applyOperationDefaults(&config)
	mergePromptSet(&config.CustomPrompts.SystemPrompts, c.AI.CustomPrompts.SystemPrompts)
	mergePromptSet(&config.CustomPrompts.UserPrompts, c.AI.CustomPrompts.UserPrompts)
	return config
}

// GetScoreConfig returns the AI configuration for scoring and rescoring with fallback to global config
func (c *Config) GetScoreConfig() OperationAIConfig {
	config := c.AI.Score
	c.applyOperationDefaults(&config)
	mergePromptSet(&config.CustomPrompts.SystemPrompts, c.AI.CustomPrompts.SystemPrompts)
	mergePromptSet(&config.CustomPrompts.UserPrompts, c.AI.CustomPrompts.UserPrompts)
	return config
}

// GetOperationConfig dispatches on operation name
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	if operation == OperationScore {
		return c.GetScoreConfig()
	}
	return c.GetExtractConfig()
}
