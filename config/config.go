// Package config loads rule files.
package config

// RuleFile is the YAML rule file.
type RuleFile struct {
	Rules                  RulesSpec              `yaml:"rules"`
	Anomalies              map[string]AnomalySpec `yaml:"anomalies"`
	Limits                 LimitsSpec             `yaml:"limits"`
	BlockOnProcessingError *bool                  `yaml:"blockOnProcessingError"`
}

// RulesSpec holds the rules per request part, in evaluation order.
type RulesSpec struct {
	Header []RuleSpec `yaml:"header"`
	URI    []RuleSpec `yaml:"uri"`
	Args   []RuleSpec `yaml:"args"`
	Body   []RuleSpec `yaml:"body"`
}

// RuleSpec is a single rule. Exactly one of Literal and Regex must be set.
type RuleSpec struct {
	ID      int    `yaml:"id"`
	Literal string `yaml:"literal"`
	Regex   string `yaml:"regex"`
	Block   bool   `yaml:"block"`
	Log     bool   `yaml:"log"`
	Allow   bool   `yaml:"allow"`
	Msg     string `yaml:"msg"`
	GIDs    []int  `yaml:"gids"`
}

// AnomalySpec overrides the defaults of a builtin anomaly. Unset fields keep their default.
type AnomalySpec struct {
	Active  *bool  `yaml:"active"`
	Block   *bool  `yaml:"block"`
	Log     *bool  `yaml:"log"`
	Msg     string `yaml:"msg"`
	GIDs    []int  `yaml:"gids"`
	Literal string `yaml:"literal"`
	Regex   string `yaml:"regex"`
}

// LimitsSpec are the request body limits. Zero means the default.
type LimitsSpec struct {
	MaxBodyLength     int `yaml:"maxBodyLength"`
	MaxPostArgsLength int `yaml:"maxPostArgsLength"`
}
