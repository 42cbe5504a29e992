// Package auth drives the session lifecycle against the backend: login and
// registration mint the token pair, logout and refresh failure tear it down.
// Both login and logout wipe the query cache, the account boundary makes
// every cached read suspect.
package auth

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/evermart/storefront/auth/request"
	"github.com/evermart/storefront/auth/response"
	"github.com/evermart/storefront/internal/gateway"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/query"
	"github.com/evermart/storefront/internal/session"
)

type Client struct {
	gateway  *gateway.Client
	cache    *query.Cache
	session  *session.Session
	validate *validator.Validate
}

func NewClient(gw *gateway.Client, cache *query.Cache, sess *session.Session) Client {
	return Client{
		gateway:  gw,
		cache:    cache,
		session:  sess,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (cl Client) Login(c context.Context, param request.Login) (response.Auth, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthClient Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	if err := cl.validate.Struct(param); err != nil {
		err = fmt.Errorf("invalid login with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Object("request", param).Msg("logging in")
	auth := response.Auth{}
	err := cl.gateway.Post(c, "/auth/login", param, &auth)
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}

	err = cl.session.Login(c, auth.AccessToken, auth.RefreshToken, auth.User)
	if err != nil {
		return response.Auth{}, err
	}
	cl.cache.Clear()
	logger.Info().Msg("logged in")
	return auth, nil
}

func (cl Client) Register(c context.Context, param request.Register) (response.Auth, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthClient Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	if err := cl.validate.Struct(param); err != nil {
		err = fmt.Errorf("invalid registration with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "registering").Logger()
	logger.Info().Object("request", param).Msg("registering")
	auth := response.Auth{}
	err := cl.gateway.Post(c, "/auth/register", param, &auth)
	if err != nil {
		err = fmt.Errorf("failed registering with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}

	err = cl.session.Login(c, auth.AccessToken, auth.RefreshToken, auth.User)
	if err != nil {
		return response.Auth{}, err
	}
	cl.cache.Clear()
	logger.Info().Msg("registered")
	return auth, nil
}

// Logout tells the backend, then clears local state regardless of what the
// backend said; the local session always ends.
func (cl Client) Logout(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "AuthClient Logout").
		Str(log.KeyProcess, "logging out").
		Logger()

	logger.Info().Msg("logging out")
	err := cl.gateway.Post(c, "/auth/logout", nil, nil)
	if err != nil {
		logger.Info().Err(err).Msg("backend logout failed, clearing local session anyway")
	}

	err = cl.session.Clear(c)
	cl.cache.Clear()
	if err != nil {
		return err
	}
	logger.Info().Msg("logged out")
	return nil
}

func (cl Client) Me(c context.Context) (session.User, error) {
	key := query.Key{query.ResourceMe}
	return query.FetchAs(c, cl.cache, key, func(c context.Context) (session.User, error) {
		user := session.User{}
		if err := cl.gateway.Get(c, "/auth/me", &user); err != nil {
			return session.User{}, err
		}
		return user, nil
	})
}
