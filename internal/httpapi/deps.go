package httpapi

import (
	"context"

	"go.uber.org/zap"

	"siftin-engine/internal/capture"
	"siftin-engine/internal/config"
	"siftin-engine/internal/events"
	"siftin-engine/internal/exports"
	"siftin-engine/internal/help"
	"siftin-engine/internal/integrations"
	"siftin-engine/internal/settings"
	"siftin-engine/internal/store"
	"siftin-engine/internal/view"
)

type Deps struct {
	Log *zap.Logger

	Hub *events.Hub

	Leads   *store.Leads
	Runs    *store.Runs
	Exports *exports.Service

	Views        *view.Registry
	Captures     *capture.Wizard
	Integrations *integrations.Service
	Settings     *settings.Store
	Help         help.Content

	// Config persistence
	Live        *config.Live
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// ShutdownToken guards POST /shutdown. Shutdown is called after the reply
	// is written; nil disables the route.
	ShutdownToken string
	Shutdown      func(ctx context.Context) error
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
