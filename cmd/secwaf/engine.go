package main

import (
	"secwaf/bodyparsing"
	"secwaf/config"
	"secwaf/waf"

	"github.com/rs/zerolog"
)

type engine struct {
	server   waf.Server
	compiled *config.Compiled
}

func (e *engine) Close() {
	e.compiled.RuleSets.Close()
}

// newEngine is the dependency injection composition root for the WAF.
func newEngine(logger zerolog.Logger, rulesPath string, hyperscanCacheDir string, rl waf.ResultsLogger, m waf.Metrics) (e *engine, err error) {
	rf, err := config.Load(rulesPath)
	if err != nil {
		return
	}

	c, err := rf.Build(multiRegexEngineOptions(logger, hyperscanCacheDir)...)
	if err != nil {
		return
	}

	logger.Info().
		Str("rules", rulesPath).
		Int("header", c.RuleSets.Header.Len()).
		Int("uri", c.RuleSets.URI.Len()).
		Int("args", c.RuleSets.Args.Len()).
		Int("body", c.RuleSets.Body.Len()).
		Msg("Loaded rules")

	var popts []bodyparsing.ParserOption
	opts := []waf.ServerOption{waf.WithBlockOnProcessingError(c.BlockOnProcessingError)}
	if m != nil {
		popts = append(popts, bodyparsing.WithMetrics(m))
		opts = append(opts, waf.WithMetrics(m))
	}

	rbp := bodyparsing.NewRequestBodyParser(c.Limits, c.Anomalies, popts...)

	e = &engine{
		server:   waf.NewServer(logger, c.RuleSets, rbp, rbp, rl, opts...),
		compiled: c,
	}
	return
}
