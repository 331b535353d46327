package ai

import (
	"clyptusrank/internal/errors"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

func float32Ptr(f float32) *float32 { return &f }

func boolPtr(b bool) *bool { return &b }
