package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"secwaf/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Problems {
				fmt.Fprintln(os.Stderr, msg)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "secwaf",
		Short:        "secwaf request inspection engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "loglevel", "error", "sets log level. Can be one of: debug, info, warn, error, fatal, panic.")

	newLogger := func() (zerolog.Logger, error) {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return zerolog.Logger{}, err
		}
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Caller().Logger(), nil
	}

	root.AddCommand(newServeCmd(newLogger))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newInspectCmd(newLogger))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "secwaf %s\n", version)
		},
	})

	return root
}

func newValidateCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate and compile a rules file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesPath == "" {
				return errors.New("rules path is required")
			}
			rf, err := config.Load(rulesPath)
			if err != nil {
				return err
			}
			c, err := rf.Build()
			if err != nil {
				return err
			}
			defer c.RuleSets.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "rules ok: header=%d uri=%d args=%d body=%d\n",
				c.RuleSets.Header.Len(), c.RuleSets.URI.Len(), c.RuleSets.Args.Len(), c.RuleSets.Body.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "Path to rules file")

	return cmd
}
