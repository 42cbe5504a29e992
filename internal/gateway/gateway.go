// Package gateway is the single point all server communication flows
// through: bearer attach, one transparent refresh-and-retry on 401, and the
// terminal session-clear path when the refresh token is gone or rejected.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"github.com/evermart/storefront/internal/constants"
	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/log"
	"github.com/evermart/storefront/internal/session"
)

const (
	refreshPath    = "/auth/refresh-token"
	DefaultTimeout = 30 * time.Second

	// refreshLeeway is how close to expiry the access token may get before a
	// request refreshes it up front instead of waiting for the 401.
	refreshLeeway = 30 * time.Second
)

var tracer = otel.Tracer(constants.AppName)

// Envelope is the backend's uniform response shape.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseUrl string
	http    *http.Client
	// bare never goes through the 401-retry logic; the refresh exchange uses
	// it so a rejected refresh can not recurse into another refresh.
	bare        *http.Client
	session     *session.Session
	group       singleflight.Group
	onTerminate []func(context.Context)
}

type Option func(*Client)

// OnSessionTerminated registers a hook run after the terminal session clear,
// e.g. wiping the query cache.
func OnSessionTerminated(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onTerminate = append(c.onTerminate, fn)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
		c.bare.Timeout = timeout
	}
}

func New(baseUrl string, sess *session.Session, opts ...Option) *Client {
	client := &Client{
		baseUrl: baseUrl,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		bare:    &http.Client{Timeout: DefaultTimeout},
		session: sess,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (cl *Client) Get(c context.Context, path string, out any) error {
	return cl.do(c, http.MethodGet, path, nil, out)
}

func (cl *Client) Post(c context.Context, path string, body, out any) error {
	return cl.do(c, http.MethodPost, path, body, out)
}

func (cl *Client) Put(c context.Context, path string, body, out any) error {
	return cl.do(c, http.MethodPut, path, body, out)
}

func (cl *Client) Patch(c context.Context, path string, body, out any) error {
	return cl.do(c, http.MethodPatch, path, body, out)
}

func (cl *Client) Delete(c context.Context, path string, out any) error {
	return cl.do(c, http.MethodDelete, path, nil, out)
}

func (cl *Client) do(c context.Context, method, path string, body, out any) error {
	c, span := tracer.Start(c, "Gateway "+method+" "+path)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Gateway do").
		Str(log.KeyMethod, method).
		Str(log.KeyPath, path).
		Logger()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}

	if cl.session.ExpiresSoon(refreshLeeway) && cl.session.RefreshToken() != "" {
		logger.Info().
			Str(log.KeyProcess, "proactive refresh").
			Msg("access token close to expiry, refreshing before request")
		if err := cl.refresh(c); err != nil {
			logger.Info().Err(err).Msg("proactive refresh failed, leaving it to the 401 path")
		}
	}

	c = logger.WithContext(c)
	err := cl.attempt(c, method, path, payload, out, false)
	if err != nil {
		inErrors.HandleError(err, span)
		return err
	}
	return nil
}

func (cl *Client) attempt(
	c context.Context,
	method, path string,
	payload []byte,
	out any,
	retried bool,
) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Gateway attempt").
		Bool("retried", retried).
		Logger()

	var bodyReader *bytes.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(c, method, cl.baseUrl+path, bodyReader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := cl.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := cl.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()

	envelope := Envelope{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		logger = logger.With().Str(log.KeyProcess, "refreshing access token").Logger()
		logger.Info().Msg("got 401, attempting silent refresh")
		err = cl.refresh(c)
		if err != nil {
			err = fmt.Errorf("failed refreshing access token with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			cl.terminate(c)
			return &inErrors.APIError{
				StatusCode: http.StatusUnauthorized,
				Message:    envelope.Message,
			}
		}
		logger.Info().Msg("refreshed access token, replaying original request")
		return cl.attempt(c, method, path, payload, out, true)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		logger.Error().
			Int(log.KeyStatusCode, resp.StatusCode).
			Str("message", envelope.Message).
			Msg("request failed")
		return &inErrors.APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}
	if decodeErr != nil {
		decodeErr = fmt.Errorf("failed decoding response envelope with error=%w", decodeErr)
		logger.Error().Err(decodeErr).Msg(decodeErr.Error())
		return decodeErr
	}

	if out != nil && envelope.Data != nil {
		err = json.Unmarshal(envelope.Data, out)
		if err != nil {
			err = fmt.Errorf("failed unmarshaling response data with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	return nil
}

// refresh exchanges the refresh token for a new access token. Concurrent
// 401s share one flight; everyone observes the same outcome.
func (cl *Client) refresh(c context.Context) error {
	_, err, _ := cl.group.Do("refresh", func() (any, error) {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "Gateway refresh").
			Str(log.KeyProcess, "exchanging refresh token").
			Logger()

		refreshToken := cl.session.RefreshToken()
		if refreshToken == "" {
			logger.Error().
				Err(inErrors.ErrNoRefreshToken).
				Msg(inErrors.ErrNoRefreshToken.Error())
			return nil, inErrors.ErrNoRefreshToken
		}

		cl.session.BeginRefresh()

		payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
		if err != nil {
			return nil, fmt.Errorf("failed marshaling refresh request with error=%w", err)
		}
		req, err := http.NewRequestWithContext(
			c,
			http.MethodPost,
			cl.baseUrl+refreshPath,
			bytes.NewReader(payload),
		)
		if err != nil {
			return nil, fmt.Errorf("failed creating refresh request with error=%w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := cl.bare.Do(req)
		if err != nil {
			err = fmt.Errorf("failed sending refresh request with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logger.Error().
				Err(inErrors.ErrRefreshRejected).
				Int(log.KeyStatusCode, resp.StatusCode).
				Msg(inErrors.ErrRefreshRejected.Error())
			return nil, inErrors.ErrRefreshRejected
		}

		envelope := Envelope{}
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		if err != nil {
			return nil, fmt.Errorf("failed decoding refresh response with error=%w", err)
		}
		tokens := struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}{}
		err = json.Unmarshal(envelope.Data, &tokens)
		if err != nil {
			return nil, fmt.Errorf("failed unmarshaling refresh tokens with error=%w", err)
		}
		if tokens.AccessToken == "" {
			return nil, inErrors.ErrTokenInvalid
		}

		err = cl.session.TokensRefreshed(c, tokens.AccessToken, tokens.RefreshToken)
		if err != nil {
			return nil, err
		}

		logger.Info().Msg("exchanged refresh token")
		return nil, nil
	})
	return err
}

// terminate is the hard session-termination path: clear tokens, run the
// registered hooks (cache wipe), no further retries.
func (cl *Client) terminate(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Gateway terminate").
		Str(log.KeyProcess, "terminating session").
		Logger()
	logger.Info().Msg("terminating session")

	if err := cl.session.Clear(c); err != nil {
		logger.Error().Err(err).Msg(err.Error())
	}
	for _, fn := range cl.onTerminate {
		fn(c)
	}
	logger.Info().Msg("terminated session")
}
