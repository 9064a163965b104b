package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func runner(use, short, what string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("failed to run %s: %w", what, err)
			}
			return nil
		},
	}
}

func TestCmd() *cobra.Command {
	return runner("test", "Run unit tests, including the bus transcript tests", "tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return runner("lint", "Run linting", "linting", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the integration suite. It expects sensors wired to
// the host bus.
func IntegrationTestCmd() *cobra.Command {
	return runner("integration-test", "Run integration testing", "integration testing", func() error { return test.Integ() })
}
