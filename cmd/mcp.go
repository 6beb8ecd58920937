package cmd

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"skimmer/app/service/toolhost"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the popup actions as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		di, _, err := newInjector(ctx)
		if err != nil {
			return err
		}
		defer di.Shutdown()

		provideSession(di, pageURL)
		do.Provide(di, toolhost.New)

		host, err := do.Invoke[*toolhost.Host](di)
		if err != nil {
			return err
		}

		return host.Run(ctx)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&pageURL, "url", "", "Address of the page the text came from")
	rootCmd.AddCommand(mcpCmd)
}
