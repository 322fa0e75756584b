package logging

import (
	"strconv"

	"secwaf/anomaly"
	"secwaf/rules"
	"secwaf/waf"
)

const (
	operationName = "SecWafFirewall"
	category      = "SecWafFirewallLog"
)

type firewallLogEntry struct {
	OperationName string                   `json:"operationName"`
	Category      string                   `json:"category"`
	Time          string                   `json:"time"`
	Properties    firewallLogEntryProperty `json:"properties"`
}

type firewallLogEntryProperty struct {
	ClientIP      string                  `json:"clientIp"`
	Method        string                  `json:"method"`
	RequestURI    string                  `json:"requestUri"`
	RuleID        string                  `json:"ruleId,omitempty"`
	RuleGroups    []int                   `json:"ruleGroups,omitempty"`
	Anomaly       string                  `json:"anomaly,omitempty"`
	Message       string                  `json:"message"`
	Action        string                  `json:"action"`
	Details       firewallLogDetailsEntry `json:"details"`
	TransactionID string                  `json:"transactionId"`
}

type firewallLogDetailsEntry struct {
	Target string `json:"target,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Data   string `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newEntry(request waf.ResultsLoggerHTTPRequest, now string) *firewallLogEntry {
	return &firewallLogEntry{
		OperationName: operationName,
		Category:      category,
		Time:          now,
		Properties: firewallLogEntryProperty{
			ClientIP:      request.RemoteAddr(),
			Method:        request.Method(),
			RequestURI:    request.URI(),
			TransactionID: request.TransactionID(),
		},
	}
}

func (e *firewallLogEntry) setMatch(match *rules.MatchContext, decision waf.Decision) {
	p := &e.Properties
	p.RuleID = strconv.Itoa(match.RuleID)
	p.RuleGroups = match.Action.GroupIDs
	p.Message = match.Action.Message
	p.Action = actionName(decision)
	p.Details.Target = match.Target.String()
	p.Details.Data = string(match.MatchedString)
	if match.Builtin {
		p.Anomaly = anomaly.ID(match.RuleID).String()
		if p.Message == "" {
			p.Message = p.Anomaly
		}
	}
}

func actionName(d waf.Decision) string {
	switch d {
	case waf.Block:
		return "Blocked"
	case waf.Allow:
		return "Allowed"
	case waf.LogOnly:
		return "Detected"
	}
	return "Passed"
}
