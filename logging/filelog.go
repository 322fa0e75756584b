package logging

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"secwaf/rules"
	"secwaf/waf"

	"github.com/rs/zerolog"
)

// DefaultPath is the default secwaf log directory
const DefaultPath = "/var/log/secwaf/"

// FileName is the secwaf log file name
const FileName = "waf_json.log"

// FileResultsLogger writes JSON lines to a log file. Close stops the writer.
type FileResultsLogger interface {
	waf.ResultsLogger
	Close() error
}

type filelogResultsLogger struct {
	fileSystem   LogFileSystem
	file         LogFile
	logger       zerolog.Logger
	writelogline chan []byte
	writeDone    chan bool
	now          func() time.Time
	closeOnce    sync.Once
	mu           sync.RWMutex
	closed       bool
}

// NewFileResultsLogger creates a results logger that write log messages to a file in dir.
func NewFileResultsLogger(fileSystem LogFileSystem, logger zerolog.Logger, dir string) (FileResultsLogger, error) {
	r := &filelogResultsLogger{fileSystem: fileSystem, logger: logger, now: time.Now}

	err := fileSystem.MkDir(dir)
	if err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create the directory while initializing")
		return nil, err
	}

	name := filepath.Join(dir, FileName)
	r.file, err = fileSystem.Open(name)
	if err != nil {
		logger.Error().Err(err).Str("file", name).Msg("Failed to open the file at initiation")
		return nil, err
	}

	r.writelogline = make(chan []byte)
	r.writeDone = make(chan bool)
	go func() {
		for v := range r.writelogline {
			if err := r.file.Append(append(v, '\n')); err != nil {
				r.logger.Error().Err(err).Msg("Failed to append to results log")
			}
			r.writeDone <- true
		}
	}()

	return r, nil
}

func (l *filelogResultsLogger) RuleMatched(request waf.ResultsLoggerHTTPRequest, match *rules.MatchContext, decision waf.Decision) {
	lg := newEntry(request, l.timestamp())
	lg.setMatch(match, decision)
	l.write(lg)
}

func (l *filelogResultsLogger) TotalBytesLimitExceeded(request waf.ResultsLoggerHTTPRequest, limit int) {
	lg := newEntry(request, l.timestamp())
	lg.Properties.Message = fmt.Sprintf("Request body length exceeded the limit (%d bytes)", limit)
	lg.Properties.Action = "Blocked"
	lg.Properties.Details.Stage = waf.BodyStage.String()
	l.write(lg)
}

func (l *filelogResultsLogger) ProcessingError(request waf.ResultsLoggerHTTPRequest, stage waf.Stage, err error) {
	lg := newEntry(request, l.timestamp())
	lg.Properties.Message = "Request scanning error"
	lg.Properties.Action = "Error"
	lg.Properties.Details.Stage = stage.String()
	lg.Properties.Details.Error = err.Error()
	l.write(lg)
}

func (l *filelogResultsLogger) timestamp() string {
	return l.now().UTC().Format(time.RFC3339Nano)
}

func (l *filelogResultsLogger) write(lg *firewallLogEntry) {
	bb, err := json.Marshal(lg)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON results log")
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.logger.Warn().Str("txid", lg.Properties.TransactionID).Msg("Results log already closed, dropping entry")
		return
	}

	l.writelogline <- bb
	<-l.writeDone
}

// Close waits for pending writes, stops the writer goroutine and closes the file.
func (l *filelogResultsLogger) Close() (err error) {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.writelogline)
		l.mu.Unlock()
		err = l.file.Close()
	})
	return
}
