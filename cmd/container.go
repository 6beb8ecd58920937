package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"skimmer/app/client/backend"
	"skimmer/app/config"
	"skimmer/app/service/session"
	"skimmer/app/service/signal"
	"skimmer/app/util/mylog"

	"github.com/samber/do"
)

func newInjector(ctx context.Context) (*do.Injector, *config.Config, error) {
	mylog.Preinit()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	if err = mylog.Init(cfg, level); err != nil {
		return nil, nil, fmt.Errorf("logging init failed: %w", err)
	}

	di := do.New()
	do.ProvideValue(di, ctx)
	do.ProvideValue(di, cfg)

	return di, cfg, nil
}

// provideSession registers everything the coordinator needs to talk to the service.
func provideSession(di *do.Injector, url string) {
	do.Provide(di, signal.New)
	do.ProvideValue[session.TabLocator](di, session.FixedTab(url))

	do.Provide(di, backend.NewClient)
	do.Provide(di, backend.NewPreferencesClient)
	do.Provide(di, backend.NewHistoryClient)
	do.Provide(di, backend.NewSummarizeClient)
	do.Provide(di, backend.NewChatClient)

	do.Provide(di, session.New)
}
