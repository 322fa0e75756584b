// Package hyperscan provides a rules.MultiRegexEngineFactory backed by Intel Hyperscan.
// It is only built with the hyperscan build tag, as it needs the Hyperscan C library.
package hyperscan
