package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	wafgrpc "secwaf/grpc"
	"secwaf/logging"
	"secwaf/metrics"
	"secwaf/waf"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	rulesPath         string
	network           string
	address           string
	maxConns          int
	metricsAddress    string
	resultsLogDir     string
	hyperscanCacheDir string
}

func newServeCmd(newLogger func() (zerolog.Logger, error)) *cobra.Command {
	var o serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the WAF over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.rulesPath == "" {
				return errors.New("rules path is required")
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), logger, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.rulesPath, "rules", "r", "", "Path to rules file")
	f.StringVar(&o.network, "network", "tcp", "Network to listen on, tcp or unix")
	f.StringVar(&o.address, "listen", "localhost:37291", "Address to listen on for gRPC")
	f.IntVar(&o.maxConns, "max-conns", 0, "Maximum concurrent gRPC connections, 0 for no limit")
	f.StringVar(&o.metricsAddress, "metrics-listen", "", "If set, serve Prometheus metrics on this address")
	f.StringVar(&o.resultsLogDir, "results-log-dir", "", "If set, write JSON results log lines to a file in this directory instead of the console log")
	f.StringVar(&o.hyperscanCacheDir, "hyperscan-cache", "", "Directory for cached Hyperscan databases")

	return cmd
}

func serve(ctx context.Context, logger zerolog.Logger, o serveOptions) (err error) {
	var rl waf.ResultsLogger
	if o.resultsLogDir != "" {
		var frl logging.FileResultsLogger
		frl, err = logging.NewFileResultsLogger(&logging.LogFileSystemImpl{}, logger, o.resultsLogDir)
		if err != nil {
			return
		}
		defer frl.Close()
		rl = frl
	} else {
		rl = logging.NewZerologResultsLogger(logger)
	}

	var m *metrics.PrometheusMetrics
	var wm waf.Metrics
	if o.metricsAddress != "" {
		m = metrics.NewPrometheusMetrics(nil)
		wm = m
	}

	e, err := newEngine(logger, o.rulesPath, o.hyperscanCacheDir, rl, wm)
	if err != nil {
		return
	}
	defer e.Close()

	lis, err := net.Listen(o.network, o.address)
	if err != nil {
		return
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	s := wafgrpc.NewServer(logger, e.server, o.maxConns)
	g.Go(func() error {
		return s.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down gRPC server")
		s.GracefulStop()
		return nil
	})

	if m != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		ms := &http.Server{Addr: o.metricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info().Str("address", o.metricsAddress).Msg("Serving metrics")
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	return
}
