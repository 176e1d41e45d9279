package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "offerboard",
	Short:         "Offer board API and page server",
	Long:          "offerboard serves the offers REST API (api) and the browser board that drives it (board). Settings come from environment variables; flags override the listen port and API URL.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(boardCmd)
}
