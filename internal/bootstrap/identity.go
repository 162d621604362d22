package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/shopfront/identity/config"
	"github.com/shopfront/identity/internal/adapters/authroles"
	"github.com/shopfront/identity/internal/adapters/httpapi"
	"github.com/shopfront/identity/internal/adapters/localstore"
	"github.com/shopfront/identity/internal/adapters/memstore"
	"github.com/shopfront/identity/internal/adapters/redisstore"
	"github.com/shopfront/identity/internal/ports"
	"github.com/shopfront/identity/internal/service"
)

// Core bundles the assembled identity services the UI layer consumes.
type Core struct {
	Session  *service.Session
	Guests   *service.GuestIssuer
	Checkout *service.CheckoutResolver
}

// BuildCore assembles the identity core from configuration: session store,
// backend client, session state machine, guest issuer, and checkout resolver.
func BuildCore(cfg config.AppConfig, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := buildSessionStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	roles, err := buildRolesMapper(cfg.Backend)
	if err != nil {
		return nil, err
	}

	backend, err := httpapi.NewClient(httpapi.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Roles:   roles,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}

	session := service.NewSession(service.SessionOptions{
		Backend: backend,
		Store:   store,
		Logger:  logger,
	})
	guests := service.NewGuestIssuer(logger)
	checkout := service.NewCheckoutResolver(service.CheckoutResolverOptions{
		Session: session,
		Guests:  guests,
		Orders:  backend,
		Logger:  logger,
	})

	return &Core{
		Session:  session,
		Guests:   guests,
		Checkout: checkout,
	}, nil
}

func buildSessionStore(cfg config.AppConfig, logger *slog.Logger) (ports.SessionStore, error) {
	switch cfg.Session.Backend {
	case config.StoreBackendFile:
		store, err := localstore.New(cfg.Session.Dir)
		if err != nil {
			return nil, fmt.Errorf("build file session store: %w", err)
		}
		return store, nil

	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.NewWithKey(client, cfg.Redis.Key), nil

	case config.StoreBackendMemory:
		if !cfg.IsDev {
			logger.Warn("memory session store selected outside dev mode; sessions will not survive restarts")
		}
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown session store backend: %q", cfg.Session.Backend)
	}
}

func buildRolesMapper(cfg config.BackendConfig) (ports.RolesMapper, error) {
	if cfg.RolesExpression == "" {
		return authroles.DefaultMapper{}, nil
	}
	mapper, err := authroles.NewJMESPathMapper(cfg.RolesExpression)
	if err != nil {
		return nil, fmt.Errorf("build roles mapper: %w", err)
	}
	return mapper, nil
}
