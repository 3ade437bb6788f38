package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PostHog/posthog-sdk-test-harness/executor"
	"github.com/PostHog/posthog-sdk-test-harness/mockserver"
)

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "harness",
		Short: "SDK conformance harness: mock ingest server and contract runner",
	}
	root.AddCommand(newServeCmd(logger), newRunCmd(logger))
	return root
}

func newServeCmd(logger zerolog.Logger) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock ingest server standalone",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mockserver.StartMockServer(addr, logger)
			if err != nil {
				return fmt.Errorf("starting mock server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), mockserver.ShutdownGracePeriod)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8765", "address to listen on")
	return cmd
}

func newRunCmd(logger zerolog.Logger) *cobra.Command {
	var adapterURL, sdkType string
	var contractsDir string
	cmd := &cobra.Command{
		Use:   "run [suite ...]",
		Short: "Run contract suites against a running adapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if contractsDir != "" {
				executor.ContractsDir = contractsDir
			}
			summary, err := executor.RunSuites(cmd.Context(), adapterURL, args, sdkType, logger)
			if err != nil {
				return fmt.Errorf("running suites: %w", err)
			}

			fmt.Printf("%d total, %d passed, %d failed (%dms)\n",
				summary.Total(), summary.Passed(), summary.Failed(), summary.DurationMS)
			if summary.Failed() > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&adapterURL, "adapter", "http://127.0.0.1:8000", "base URL of the running adapter")
	cmd.Flags().StringVar(&sdkType, "sdk-type", "", "active SDK flavour tag (default: server)")
	cmd.Flags().StringVar(&contractsDir, "contracts", "", "directory of contract YAML documents (default: ./contracts)")
	return cmd
}
