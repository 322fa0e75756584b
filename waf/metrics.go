package waf

import "time"

// Metrics receives counters and timings about evaluated requests.
type Metrics interface {
	RequestEvaluated(decision Decision, duration time.Duration)
	RuleMatched(ruleID int, builtin bool)
	ProcessingError(stage Stage)

	// MultipartIrregularity counts a multipart body whose framing deviates from the strict layout in the named way.
	MultipartIrregularity(kind string)
}

type nopMetrics struct{}

func (nopMetrics) RequestEvaluated(Decision, time.Duration) {}
func (nopMetrics) RuleMatched(int, bool)                    {}
func (nopMetrics) ProcessingError(Stage)                    {}
func (nopMetrics) MultipartIrregularity(string)             {}
