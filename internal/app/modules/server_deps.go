package modules

import (
	"time"

	"pitlane.io/pitlane/internal/api/handlers"
	"pitlane.io/pitlane/internal/api/middleware"
	"pitlane.io/pitlane/internal/config"
)

// Token defaults when the session section is left empty.
const (
	defaultIssuer   = "pitlane"
	defaultLifetime = 24 * time.Hour
)

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, infra *Infrastructure, mods []Module) handlers.ServerDeps {
	issuer := cfg.Session.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	lifetime := cfg.Session.Lifetime
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}

	deps := handlers.ServerDeps{
		JWTCfg: middleware.JWTConfig{
			SigningKey: []byte(cfg.Security.SessionSecret),
			Issuer:     issuer,
			ExpiresIn:  lifetime,
		},
	}
	if infra != nil && infra.Pools != nil {
		deps.Pools = infra.Pools
	}
	if infra != nil && infra.DB != nil && infra.DB.Pool != nil {
		deps.DB = infra.DB.Pool
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
