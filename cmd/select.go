package cmd

import (
	"fmt"
	"strings"

	"skimmer/app/config"
	"skimmer/app/service/signal"

	"github.com/spf13/cobra"
)

var noPopup bool

var selectCmd = &cobra.Command{
	Use:   "select <text>",
	Short: "Summarize a selection: store it for the popup and open the popup",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing selected")
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}

		store, err := signal.NewStore(cfg.Signal.Path)
		if err != nil {
			return err
		}

		if err = store.Set(signal.Signal{
			SelectedText:  text,
			AutoSummarize: true,
			SourceURL:     pageURL,
		}); err != nil {
			return err
		}

		if noPopup {
			return nil
		}

		return runPopup(cmd)
	},
}

func init() {
	selectCmd.Flags().StringVar(&pageURL, "url", "", "Address of the page the text came from")
	selectCmd.Flags().BoolVar(&noPopup, "no-popup", false, "Only store the selection")
	rootCmd.AddCommand(selectCmd)
}
