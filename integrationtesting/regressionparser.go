// Package integrationtesting runs YAML described regression requests through the whole WAF.
package integrationtesting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"secwaf/waf"

	yaml "gopkg.in/yaml.v3"
)

// TestCase is one regression test.
type TestCase struct {
	File      string
	TestTitle string
	Requests  []waf.HTTPRequest

	// Expected output. ExpectedRuleID and ExpectedAnomaly are only checked if set.
	ExpectedDecision        string
	ExpectedRuleID          int
	ExpectedAnomaly         string
	ExpectedProcessingError bool
}

// YAML parsing requires exporting of struct fields
type input struct {
	Method  string            `yaml:"method"`
	URI     string            `yaml:"uri"`
	Headers map[string]string `yaml:"headers"`
	Data    interface{}       `yaml:"data"`
}

type output struct {
	Decision        string `yaml:"decision"`
	RuleID          int    `yaml:"rule_id"`
	Anomaly         string `yaml:"anomaly"`
	ProcessingError bool   `yaml:"processing_error"`
}

type stage struct {
	Input  input  `yaml:"input"`
	Output output `yaml:"output"`
}

type stageWrapper struct {
	Stage stage `yaml:"stage"`
}

type test struct {
	TestTitle string         `yaml:"test_title"`
	Stages    []stageWrapper `yaml:"stages"`
}

type testFile struct {
	Meta  map[string]string `yaml:"meta"`
	Tests []test            `yaml:"tests"`
}

// GetTests returns parsed tests from all YAML test files under testRootDir.
func GetTests(testRootDir string) (tests []TestCase, err error) {
	var files []string
	err = filepath.Walk(testRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".yaml") {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return
	}

	if len(files) == 0 {
		err = fmt.Errorf("no test files found under %v folder", testRootDir)
		return
	}

	sort.Strings(files)

	for _, file := range files {
		var tf testFile
		if tf, err = parseTestFile(file); err != nil {
			return
		}

		var tt []TestCase
		if tt, err = toTestCase(file, tf); err != nil {
			return
		}
		tests = append(tests, tt...)
	}

	return
}

func parseTestFile(path string) (tf testFile, err error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return
	}

	if err = yaml.Unmarshal(bb, &tf); err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

func toTestCase(file string, tf testFile) (testCases []TestCase, err error) {
	for _, t := range tf.Tests {
		if len(t.Stages) == 0 {
			err = fmt.Errorf("%v: test %q has no stages", file, t.TestTitle)
			return
		}

		tc := TestCase{File: filepath.Base(file), TestTitle: t.TestTitle}
		for _, s := range t.Stages {
			in := s.Stage.Input
			if in.Method == "" || in.URI == "" {
				err = fmt.Errorf("%v: test %q needs a method and an uri", file, t.TestTitle)
				return
			}

			req := &testHTTPRequest{method: in.Method, uri: in.URI, body: getBody(in.Data)}
			if i := strings.IndexByte(in.URI, '?'); i != -1 {
				req.queryString = in.URI[i+1:]
			}

			keys := make([]string, 0, len(in.Headers))
			for k := range in.Headers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				req.headers = append(req.headers, &testHeaderPair{k: k, v: in.Headers[k]})
			}
			tc.Requests = append(tc.Requests, req)

			// The last stage decides the expected output.
			out := s.Stage.Output
			tc.ExpectedDecision = out.Decision
			tc.ExpectedRuleID = out.RuleID
			tc.ExpectedAnomaly = out.Anomaly
			tc.ExpectedProcessingError = out.ProcessingError
		}

		if tc.ExpectedDecision == "" {
			err = fmt.Errorf("%v: test %q has no expected decision", file, t.TestTitle)
			return
		}
		testCases = append(testCases, tc)
	}

	return
}

// The data field in the YAML files can be either a single string, or a list of lines. A list is joined with CRLF, as lines of a multipart body are.
func getBody(inputData interface{}) (body string) {
	switch d := inputData.(type) {
	case string:
		body = d
	case []interface{}:
		lines := make([]string, 0, len(d))
		for _, line := range d {
			if line, ok := line.(string); ok {
				lines = append(lines, line)
			}
		}
		body = strings.Join(lines, "\r\n")
	}
	return
}

type testHTTPRequest struct {
	method      string
	uri         string
	queryString string
	headers     []waf.HeaderPair
	body        string
}

func (r *testHTTPRequest) Method() string            { return r.method }
func (r *testHTTPRequest) URI() string               { return r.uri }
func (r *testHTTPRequest) QueryString() string       { return r.queryString }
func (r *testHTTPRequest) RemoteAddr() string        { return "127.0.0.1" }
func (r *testHTTPRequest) Headers() []waf.HeaderPair { return r.headers }
func (r *testHTTPRequest) BodyReader() io.Reader     { return bytes.NewBufferString(r.body) }
func (r *testHTTPRequest) BodyInMemory() bool        { return true }
func (r *testHTTPRequest) TransactionID() string     { return "regression" }

type testHeaderPair struct {
	k string
	v string
}

func (h *testHeaderPair) Key() string   { return h.k }
func (h *testHeaderPair) Value() string { return h.v }
