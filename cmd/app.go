package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/evermart/storefront/admin"
	"github.com/evermart/storefront/auth"
	"github.com/evermart/storefront/cart"
	"github.com/evermart/storefront/catalog"
	"github.com/evermart/storefront/coupon"
	"github.com/evermart/storefront/internal/config"
	"github.com/evermart/storefront/internal/constants"
	"github.com/evermart/storefront/internal/gateway"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/otel"
	"github.com/evermart/storefront/internal/query"
	"github.com/evermart/storefront/internal/session"
	"github.com/evermart/storefront/internal/storage"
	"github.com/evermart/storefront/order"
)

// app wires the whole client stack: storage -> session -> gateway -> cache ->
// resource clients. Built once per invocation in the root pre-run.
type app struct {
	cfg       *config.Config
	storage   storage.Store
	session   *session.Session
	cache     *query.Cache
	gateway   *gateway.Client
	cart      *cart.Store
	auth      auth.Client
	catalog   catalog.Client
	order     order.Client
	coupon    coupon.Client
	admin     admin.Client
	shutdowns []otel.ShutdownFunc
}

func (a *app) init(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "app init").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.ConfigName)
	a.cfg = cfg
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdowns, err := otel.InitOtelSdk(c, constants.AppName, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	a.shutdowns = shutdowns
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing storage").Logger()
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("initializing storage")
	c = logger.WithContext(c)
	switch cfg.Storage.Backend {
	case "redis":
		client := storage.NewRedisClient(c, cfg.Redis)
		a.storage = storage.NewRedisStore(client, constants.AppName)
	case "memory":
		a.storage = storage.NewMemoryStore()
	default:
		store, err := storage.NewFileStore(c, cfg.Storage.Path)
		if err != nil {
			err = fmt.Errorf("failed initializing file storage with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		a.storage = store
	}
	logger.Info().Msg("initialized storage")

	logger = logger.With().Str(log.KeyProcess, "loading session").Logger()
	logger.Info().Msg("loading session")
	a.session = session.New(a.storage)
	err = a.session.Load(c)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().
		Str(log.KeySessionType, a.session.State().String()).
		Msg("loaded session")

	ttl := time.Duration(cfg.Cache.TtlSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	a.cache = query.NewCache(ttl)

	a.gateway = gateway.New(
		cfg.Api.BaseUrl,
		a.session,
		gateway.WithTimeout(time.Duration(cfg.Api.TimeoutSeconds)*time.Second),
		gateway.OnSessionTerminated(func(c context.Context) {
			a.cache.Clear()
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}),
	)

	logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
	logger.Info().Msg("loading cart")
	a.cart = cart.NewStore(a.storage)
	err = a.cart.Load(c)
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("loaded cart")

	a.auth = auth.NewClient(a.gateway, a.cache, a.session)
	a.catalog = catalog.NewClient(a.gateway, a.cache)
	a.order = order.NewClient(a.gateway, a.cache)
	a.coupon = coupon.NewClient(a.gateway, a.cache)
	a.admin = admin.NewClient(a.gateway, a.cache)
	return nil
}

func (a *app) close(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "app close").
		Str(log.KeyProcess, "shutting down otel").
		Logger()

	logger.Info().Msg("shutting down otel")
	c = logger.WithContext(c)
	err := otel.ShutdownOtel(c, a.shutdowns)
	if err != nil {
		err = fmt.Errorf("failed shutting down otel with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown otel")
}

// printJson renders command output for the terminal.
func printJson(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
