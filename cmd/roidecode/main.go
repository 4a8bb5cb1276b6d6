package main

import (
	"fmt"
	"os"

	"roidecode/internal/errors"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "roidecode",
		Short:         "Decode emotional valence from ROI signals in fMRI beta images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newSynthCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(errors.ExitCode(err))
	}
}

