package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	"github.com/vsinha/printcenter/pkg/infrastructure/auth"
	"github.com/vsinha/printcenter/pkg/infrastructure/config"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
	"github.com/vsinha/printcenter/pkg/infrastructure/events/handlers"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/bolt"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/mysql"
	"github.com/vsinha/printcenter/pkg/infrastructure/telemetry"
)

// runtime is the wired application behind one command invocation
type runtime struct {
	store  repositories.Store
	events *events.InMemoryEventStore
	svc    *services.Services
	tokens *auth.Issuer
}

// openStore opens the configured backend and traces every transaction
func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (repositories.Store, error) {
	var (
		store repositories.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverBolt:
		store, err = bolt.NewStore(cfg.Path, logger)
	case config.DriverMySQL:
		store, err = mysql.NewStore(ctx, cfg.DSN, logger)
	case config.DriverMemory:
		store = memory.NewStore()
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return telemetry.WrapStore(store, cfg.Driver), nil
}

// open wires the store, event bus and services. Domain events are audited
// for every command; serve adds metrics and webhook subscribers on top.
// withTokens is set by commands that issue or verify tokens.
func (a *App) open(ctx context.Context, withTokens bool) (*runtime, error) {
	store, err := openStore(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		store:  store,
		events: events.NewInMemoryEventStore(a.logger),
	}
	if err := handlers.Register(rt.events, handlers.NewAudit(store, a.logger)); err != nil {
		rt.close(a.logger)
		return nil, err
	}
	if withTokens {
		rt.tokens, err = auth.NewIssuer(a.cfg.Auth.Secret, a.cfg.Auth.AccessTTL, a.cfg.Auth.RefreshTTL)
		if err != nil {
			rt.close(a.logger)
			return nil, err
		}
	}
	rt.svc, err = services.New(services.Options{
		Store:    store,
		Events:   rt.events,
		Tokens:   rt.tokens,
		Clock:    time.Now,
		Location: a.cfg.Location(),
		Logger:   a.logger,
	})
	if err != nil {
		rt.close(a.logger)
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) close(logger zerolog.Logger) {
	if rt.tokens != nil {
		rt.tokens.Stop()
	}
	if err := rt.store.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close store")
	}
}
