package main

import (
	"fmt"
	"os"

	"pisaresilience/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; the environment may already carry everything
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "pisa-resilience",
		Short:         "Label academically resilient students in PISA 2018 (Korea and United States)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newRunCmd(),
		newDescribeCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "[%s] %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
