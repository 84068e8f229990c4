package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Rahil-15/MediBot2.0/config"
	"github.com/Rahil-15/MediBot2.0/logging"
)

// app carries what every command needs once the root command has loaded it.
type app struct {
	cfg    config.Config
	logger *log.Logger
	close  func() error
}

func main() {
	a := &app{logger: log.New(os.Stdout, "", log.LstdFlags)}

	if err := newRootCmd(a).Execute(); err != nil {
		a.logger.Printf("%v", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "medibot",
		Short:         "MediBot answers medical questions from indexed reference PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(envFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(a), newIngestCmd(a), newClearCmd(a))
	return root
}

// load reads the dotenv file, if present, then the configuration and the
// log destination. Missing credentials are reported here and nowhere else.
func (a *app) load(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	a.cfg = config.Load()

	logger, closeFn, err := logging.New(a.cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logger = logger
	a.close = closeFn

	for _, warning := range a.cfg.Warnings() {
		a.logger.Printf("WARNING: %s", warning)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// confirm asks question on stdout and reports whether the answer was yes.
func confirm(question string) (bool, error) {
	fmt.Print(question + " [y/N]: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}
