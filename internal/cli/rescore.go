package cli

import (
	"context"
	"fmt"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/common"
	"clyptusrank/internal/refine"
	"clyptusrank/internal/types"

	"github.com/spf13/cobra"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore [resume-text-file] [job-description-text-file]",
	Short: "Score an edited plain-text resume against job description text",
	Long: `Rescore reads a plain-text resume and a plain-text job description and
asks the scoring model for a fresh score. Use it after editing the resume
text written by a previous analysis.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if rescoreConfig.OutputFormat == "" {
			rescoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(rescoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRescore,
}

var rescoreConfig common.CommandConfig

func init() {
	rescoreCmd.Flags().StringVarP(&rescoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	rescoreCmd.Flags().StringVar(&rescoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = rescoreCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runRescore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	om, shutdown, err := startObservability(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	aiService, err := ai.NewService(cfg, om, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() { _ = aiService.Close() }()

	readInput := func(files *common.FileProcessor) (types.ScoreInput, error) {
		contents, err := files.ReadTextFiles(args...)
		if err != nil {
			return types.ScoreInput{}, err
		}
		return types.ScoreInput{ResumeText: contents[0], JobDescriptionText: contents[1]}, nil
	}

	logDetails := func(input types.ScoreInput, cfg common.CommandConfig) {
		logger.Info("Starting rescore",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescriptionText),
			"output_format", cfg.OutputFormat)
	}

	rescoreOperation := func(ctx context.Context, input types.ScoreInput) (types.ScoreResult, *ai.TokenUsage, error) {
		result, err := refine.Rescore(ctx, aiService, input)
		return result, nil, err
	}

	cmdConfig := rescoreConfig
	cmdConfig.Stdout = cmd.OutOrStdout()
	if err := common.RunAICommand(cmd.Context(), logger, cmdConfig, readInput, rescoreOperation, logDetails); err != nil {
		return fmt.Errorf("failed to rescore resume: %w", err)
	}
	logger.Info("Rescore completed successfully")
	return nil
}
