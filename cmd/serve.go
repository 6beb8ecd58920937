package cmd

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"skimmer/app/server"
	"skimmer/app/service/assistant"
	"skimmer/app/service/summarizer"
	"skimmer/app/storage"

	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the summarization service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		di, cfg, err := newInjector(ctx)
		if err != nil {
			return err
		}
		defer di.Shutdown()

		if err = cfg.ValidateServer(); err != nil {
			return err
		}

		do.Provide(di, storage.New)
		do.Provide(di, summarizer.New)
		do.Provide(di, assistant.New)
		do.Provide(di, server.New)

		srv, err := do.Invoke[*server.Server](di)
		if err != nil {
			return err
		}

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
