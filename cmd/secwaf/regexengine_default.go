//go:build !hyperscan
// +build !hyperscan

package main

import (
	"secwaf/rules"

	"github.com/rs/zerolog"
)

func multiRegexEngineOptions(logger zerolog.Logger, cacheDir string) []rules.RuleSetOption {
	if cacheDir != "" {
		logger.Warn().Msg("Built without Hyperscan, ignoring Hyperscan cache directory")
	}
	return nil
}
