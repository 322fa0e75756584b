package logging

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"secwaf/anomaly"
	"secwaf/rules"
	"secwaf/testutils"
	"secwaf/waf"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatched(t *testing.T) {
	// Arrange
	request := &mockWafHTTPRequest{uri: "/a", method: "GET", remoteAddr: "10.0.0.1"}
	match := &rules.MatchContext{
		Matched:       true,
		RuleID:        11,
		Target:        rules.TargetURI,
		MatchedString: []byte("/a"),
		Action:        rules.Action{Block: true, Log: true, GroupIDs: []int{1, 2}, Message: "abc"},
	}
	fileSystem := newMockFileSystem()
	l := newTestFileLogger(t, fileSystem)

	// Act
	l.RuleMatched(request, match, waf.Block)
	log := fileSystem.Get("/tmp/waflogs/" + FileName)

	// Assert
	expected := `{"operationName":"SecWafFirewall","category":"SecWafFirewallLog","time":"2020-01-02T03:04:05Z","properties":{"clientIp":"10.0.0.1","method":"GET","requestUri":"/a","ruleId":"11","ruleGroups":[1,2],"message":"abc","action":"Blocked","details":{"target":"uri","data":"/a"},"transactionId":"abc"}}`
	if log != expected+"\n" {
		t.Fatalf("RuleMatched got wrong log entry %v, expected %v", log, expected)
	}
}

func TestRuleMatchedBuiltin(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	request := &mockWafHTTPRequest{uri: "/upload", method: "POST"}
	match := &rules.MatchContext{
		Matched: true,
		RuleID:  int(anomaly.UncommonPostBoundary),
		Builtin: true,
		Target:  rules.TargetBuiltin,
		Action:  rules.Action{Block: true, Log: true},
	}
	fileSystem := newMockFileSystem()
	l := newTestFileLogger(t, fileSystem)

	// Act
	l.RuleMatched(request, match, waf.Block)
	var e firewallLogEntry
	err := json.Unmarshal([]byte(fileSystem.Get("/tmp/waflogs/"+FileName)), &e)

	// Assert
	assert.Nil(err)
	assert.Equal(anomaly.UncommonPostBoundary.String(), e.Properties.Anomaly)
	assert.Equal(anomaly.UncommonPostBoundary.String(), e.Properties.Message)
	assert.Equal("builtin", e.Properties.Details.Target)
}

func TestTotalBytesLimitExceeded(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	fileSystem := newMockFileSystem()
	l := newTestFileLogger(t, fileSystem)

	// Act
	l.TotalBytesLimitExceeded(&mockWafHTTPRequest{uri: "/a"}, 1024)
	l.ProcessingError(&mockWafHTTPRequest{uri: "/b"}, waf.ArgsStage, errors.New("bad args"))
	lines := strings.Split(strings.TrimSuffix(fileSystem.Get("/tmp/waflogs/"+FileName), "\n"), "\n")

	// Assert
	assert.Len(lines, 2)
	assert.Contains(lines[0], `"message":"Request body length exceeded the limit (1024 bytes)"`)
	assert.Contains(lines[0], `"stage":"body"`)
	assert.Contains(lines[1], `"stage":"args"`)
	assert.Contains(lines[1], `"error":"bad args"`)
}

func TestClosedLoggerDropsEntries(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	fileSystem := newMockFileSystem()
	l := newTestFileLogger(t, fileSystem)

	// Act
	err1 := l.Close()
	err2 := l.Close()
	l.TotalBytesLimitExceeded(&mockWafHTTPRequest{uri: "/a"}, 1)

	// Assert
	assert.Nil(err1)
	assert.Nil(err2)
	assert.Equal("", fileSystem.Get("/tmp/waflogs/"+FileName))
	assert.True(fileSystem.fmap["/tmp/waflogs/"+FileName].closed)
}

func TestMkDirFailure(t *testing.T) {
	// Arrange
	fileSystem := newMockFileSystem()
	fileSystem.mkdirErr = errors.New("read-only file system")

	// Act
	_, err := NewFileResultsLogger(fileSystem, testutils.NewTestLogger(t), "/tmp/waflogs/")

	// Assert
	if err == nil {
		t.Fatalf("Expected error")
	}
}

func newTestFileLogger(t *testing.T, fileSystem *mockFileSystem) FileResultsLogger {
	l, err := NewFileResultsLogger(fileSystem, testutils.NewTestLogger(t), "/tmp/waflogs/")
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	l.(*filelogResultsLogger).now = func() time.Time { return time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}
