// Package session owns the token pair and user snapshot and their lifecycle:
// Anonymous -> Authenticated -> Refreshing -> (Authenticated | Anonymous).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/storage"
)

type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type Session struct {
	mu           sync.RWMutex
	state        State
	accessToken  string
	refreshToken string
	user         *User
	store        storage.Store
}

func New(store storage.Store) *Session {
	return &Session{state: StateAnonymous, store: store}
}

// Load restores a persisted session; a missing token pair is not an error,
// the session just stays anonymous.
func (s *Session) Load(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Load").
		Str(log.KeyProcess, "loading session from storage").
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	access, err := s.store.Get(c, storage.KeyAccessToken)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			logger.Info().Msg("no persisted session, staying anonymous")
			return nil
		}
		err = fmt.Errorf("failed loading access token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	refresh, err := s.store.Get(c, storage.KeyRefreshToken)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		err = fmt.Errorf("failed loading refresh token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	s.accessToken = string(access)
	s.refreshToken = string(refresh)
	s.state = StateAuthenticated

	rawUser, err := s.store.Get(c, storage.KeyUser)
	if err == nil {
		user := User{}
		if err := json.Unmarshal(rawUser, &user); err == nil {
			s.user = &user
		}
	}

	logger.Info().
		Str(log.KeySessionType, s.state.String()).
		Msg("loaded persisted session")
	return nil
}

// Login stores a fresh token pair and user snapshot and moves the session to
// Authenticated.
func (s *Session) Login(c context.Context, access, refresh string, user User) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Login").
		Str(log.KeyProcess, "persisting session").
		Str(log.KeyUserID, user.ID.String()).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = access
	s.refreshToken = refresh
	s.user = &user
	s.state = StateAuthenticated

	if err := s.store.Set(c, storage.KeyAccessToken, []byte(access)); err != nil {
		err = fmt.Errorf("failed persisting access token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.store.Set(c, storage.KeyRefreshToken, []byte(refresh)); err != nil {
		err = fmt.Errorf("failed persisting refresh token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		err = fmt.Errorf("failed marshaling user with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := s.store.Set(c, storage.KeyUser, rawUser); err != nil {
		err = fmt.Errorf("failed persisting user with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Info().Msg("persisted session")
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// BeginRefresh marks the 401-triggered transition Authenticated -> Refreshing.
func (s *Session) BeginRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateRefreshing
}

// TokensRefreshed installs the newly minted access token (and rotated refresh
// token when the backend returns one) and returns to Authenticated.
func (s *Session) TokensRefreshed(c context.Context, access, refresh string) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session TokensRefreshed").
		Str(log.KeyProcess, "persisting refreshed tokens").
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	s.state = StateAuthenticated

	if err := s.store.Set(c, storage.KeyAccessToken, []byte(access)); err != nil {
		err = fmt.Errorf("failed persisting refreshed access token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if refresh != "" {
		if err := s.store.Set(c, storage.KeyRefreshToken, []byte(refresh)); err != nil {
			err = fmt.Errorf("failed persisting rotated refresh token with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}

	logger.Info().Msg("persisted refreshed tokens")
	return nil
}

// Clear is the terminal path: drops tokens and user from memory and storage
// and returns to Anonymous. The cart is left alone, it belongs to the device,
// not the account.
func (s *Session) Clear(c context.Context) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session Clear").
		Str(log.KeyProcess, "clearing session").
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.state = StateAnonymous

	var joined error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser} {
		if err := s.store.Delete(c, key); err != nil {
			joined = errors.Join(joined, err)
		}
	}
	if joined != nil {
		joined = fmt.Errorf("failed clearing session storage with error=%w", joined)
		logger.Error().Err(joined).Msg(joined.Error())
		return joined
	}

	logger.Info().Msg("cleared session")
	return nil
}

// ExpiresSoon peeks at the access token's exp claim without verifying the
// signature; the client never holds the signing key. Unparseable tokens
// report false and are left for the 401 path to sort out.
func (s *Session) ExpiresSoon(leeway time.Duration) bool {
	s.mu.RLock()
	access := s.accessToken
	s.mu.RUnlock()
	if access == "" {
		return false
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, _, err := parser.ParseUnverified(access, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now().Add(leeway))
}

// Valid reports whether the session holds a usable token pair at all.
func (s *Session) Valid() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == "" {
		return inErrors.ErrSessionExpired
	}
	return nil
}
