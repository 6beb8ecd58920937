package mylog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"skimmer/app/config"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// NotifyKey marks a record that should also reach telegram regardless of level.
const NotifyKey = "telegram"

var output io.Writer = os.Stderr

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(output, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config, level slog.Level) error {
	router := slogmulti.Router()

	router = router.Add(console.NewHandler(output, &console.HandlerOptions{
		AddSource: level == slog.LevelDebug,
		Level:     level,
	}))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			shouldNotify,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func shouldNotify(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	flagged := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == NotifyKey {
			flagged = true
			return false
		}

		return true
	})

	return flagged
}
