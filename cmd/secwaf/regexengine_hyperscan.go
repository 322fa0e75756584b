//go:build hyperscan
// +build hyperscan

package main

import (
	"secwaf/hyperscan"
	"secwaf/rules"

	"github.com/rs/zerolog"
)

func multiRegexEngineOptions(logger zerolog.Logger, cacheDir string) []rules.RuleSetOption {
	hscache := hyperscan.NewDbCache(logger, hyperscan.NewCacheFileSystem(cacheDir))
	mref := hyperscan.NewMultiRegexEngineFactory(logger, hscache)
	return []rules.RuleSetOption{rules.WithMultiRegexEngineFactory(mref)}
}
