package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	wafgrpc "secwaf/grpc"
	"secwaf/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newInspectCmd(newLogger func() (zerolog.Logger, error)) *cobra.Command {
	var rulesPath string
	var remote string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "inspect <raw-request-file>",
		Short: "Inspect a raw HTTP request read from a file, or - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (rulesPath == "") == (remote == "") {
				return errors.New("exactly one of --rules and --remote is required")
			}

			req, err := readRawRequest(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var resp *wafgrpc.InspectResponse
			if remote != "" {
				resp, err = inspectRemote(ctx, remote, req)
			} else {
				var logger zerolog.Logger
				logger, err = newLogger()
				if err != nil {
					return err
				}
				resp, err = inspectLocal(ctx, logger, rulesPath, req)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Inspect in process with this rules file")
	cmd.Flags().StringVar(&remote, "remote", "", "Inspect with the secwaf gRPC server at this address")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the verdict")

	return cmd
}

func inspectLocal(ctx context.Context, logger zerolog.Logger, rulesPath string, req *wafgrpc.InspectRequest) (*wafgrpc.InspectResponse, error) {
	e, err := newEngine(logger, rulesPath, "", logging.NewZerologResultsLogger(logger), nil)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	v, err := e.server.EvalRequest(ctx, req.AsWafRequest())
	if err != nil {
		return nil, err
	}
	return wafgrpc.NewInspectResponse(v), nil
}

func inspectRemote(ctx context.Context, address string, req *wafgrpc.InspectRequest) (*wafgrpc.InspectResponse, error) {
	c, err := wafgrpc.Dial(address)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.Inspect(ctx, req)
}

func readRawRequest(stdin io.Reader, path string) (req *wafgrpc.InspectRequest, err error) {
	r := stdin
	if path != "-" {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return
		}
		defer f.Close()
		r = f
	}

	hr, err := http.ReadRequest(bufio.NewReader(r))
	if err != nil {
		err = fmt.Errorf("failed to read raw request: %w", err)
		return
	}
	defer hr.Body.Close()

	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return
	}

	req = &wafgrpc.InspectRequest{
		Method:      hr.Method,
		URI:         hr.RequestURI,
		QueryString: hr.URL.RawQuery,
		Body:        body,
	}

	// Host first, as it is not kept in hr.Header.
	if hr.Host != "" {
		req.Headers = append(req.Headers, wafgrpc.HeaderPair{Key: "Host", Value: hr.Host})
	}
	names := make([]string, 0, len(hr.Header))
	for name := range hr.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range hr.Header[name] {
			req.Headers = append(req.Headers, wafgrpc.HeaderPair{Key: name, Value: v})
		}
	}
	if hr.ContentLength > 0 && hr.Header.Get("Content-Length") == "" {
		req.Headers = append(req.Headers, wafgrpc.HeaderPair{Key: "Content-Length", Value: fmt.Sprint(hr.ContentLength)})
	}

	return
}
