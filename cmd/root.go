package cmd

import (
	"fmt"
	"os"

	"skimmer/app/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	pageURL    string
)

var rootCmd = &cobra.Command{
	Use:   "skimmer",
	Short: "Summarize selected text and chat about it",
	Long: `Skimmer turns a text selection into a short summary with key points and
lets you ask follow-up questions about it.

  skimmer serve                      run the summarization service
  skimmer select "some text"         hand a selection to the popup and open it
  skimmer popup                      open the popup
  skimmer mcp                        expose the popup actions as MCP tools`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
