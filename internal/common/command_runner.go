package common

import (
	"context"
	"fmt"
	"os"

	"clyptusrank/internal/ai"
	"clyptusrank/internal/errors"
)

// ReadInputFunc builds an oracle input from the command's files
type ReadInputFunc[Input any] func(files *FileProcessor) (Input, error)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc is any oracle call that reports token usage
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunAICommand reads the command's inputs, runs one oracle call and writes
// the formatted result.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	readInput ReadInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	files := NewFileProcessor(logger)

	if err := files.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	input, err := readInput(files)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		if logger != nil {
			logger.Info("AI token usage",
				"input_tokens", tokenUsage.InputTokens,
				"output_tokens", tokenUsage.OutputTokens,
				"total_tokens", tokenUsage.TotalTokens)
		} else {
			fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n",
				tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
