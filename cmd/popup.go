package cmd

import (
	"skimmer/app/service/popup"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Open the popup: summary, key points, chat and history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPopup(cmd)
	},
}

func runPopup(cmd *cobra.Command) error {
	di, _, err := newInjector(cmd.Context())
	if err != nil {
		return err
	}
	defer di.Shutdown()

	provideSession(di, pageURL)
	do.Provide(di, popup.New)

	host, err := do.Invoke[*popup.Host](di)
	if err != nil {
		return err
	}

	return host.Run(cmd.Context())
}

func init() {
	popupCmd.Flags().StringVar(&pageURL, "url", "", "Address of the page the text came from")
	rootCmd.AddCommand(popupCmd)
}
