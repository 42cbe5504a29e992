package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/evermart/storefront/internal/errors"
	"github.com/evermart/storefront/internal/session"
	"github.com/evermart/storefront/internal/storage"
)

func writeEnvelope(w http.ResponseWriter, statusCode int, message string, data any) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Envelope{
		Success: statusCode < http.StatusBadRequest,
		Message: message,
		Data:    raw,
	})
}

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func authenticatedSession(t *testing.T, access, refresh string) *session.Session {
	t.Helper()
	sess := session.New(storage.NewMemoryStore())
	err := sess.Login(context.Background(), access, refresh, session.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "test@example.com",
		Role:  "customer",
	})
	require.NoError(t, err)
	return sess
}

func TestAttachesBearerToken(t *testing.T) {
	var gotAuthorization string
	router := mux.NewRouter()
	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, "ok", []string{"a"})
	}).Methods(http.MethodGet)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "access-1", "refresh-1")
	client := New(server.URL, sess)

	out := []string{}
	require.NoError(t, client.Get(context.Background(), "/products", &out))
	assert.Equal(t, "Bearer access-1", gotAuthorization)
	assert.Equal(t, []string{"a"}, out)
}

func TestRefreshesOnceOn401AndReplaysRequest(t *testing.T) {
	var protectedCalls, refreshCalls atomic.Int32
	router := mux.NewRouter()
	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]string{"id": "order-1"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		body := map[string]string{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refreshToken"])
		writeEnvelope(w, http.StatusOK, "refreshed", map[string]string{
			"accessToken":  "new-access",
			"refreshToken": "refresh-2",
		})
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "stale-access", "refresh-1")
	client := New(server.URL, sess)

	out := map[string]string{}
	require.NoError(t, client.Get(context.Background(), "/orders", &out))

	assert.Equal(t, "order-1", out["id"])
	assert.EqualValues(t, 1, refreshCalls.Load())
	assert.EqualValues(t, 2, protectedCalls.Load())
	assert.Equal(t, "new-access", sess.AccessToken())
	assert.Equal(t, "refresh-2", sess.RefreshToken())
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestRefreshFailureTerminatesSession(t *testing.T) {
	var gotAuthorization string
	var terminated atomic.Bool
	router := mux.NewRouter()
	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, "refresh token revoked", nil)
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	mem := storage.NewMemoryStore()
	sess := session.New(mem)
	require.NoError(t, sess.Login(context.Background(), "stale-access", "revoked-refresh", session.User{ID: uuid.New()}))
	client := New(server.URL, sess, OnSessionTerminated(func(context.Context) {
		terminated.Store(true)
	}))

	err := client.Get(context.Background(), "/orders", nil)
	apiErr := &inErrors.APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	assert.True(t, terminated.Load())
	assert.Empty(t, sess.AccessToken())
	assert.Empty(t, sess.RefreshToken())
	assert.Equal(t, session.StateAnonymous, sess.State())
	_, err = mem.Get(context.Background(), storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	_, err = mem.Get(context.Background(), storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// The session is gone, so the next request goes out anonymous and is not
	// retried again.
	gotAuthorization = "sentinel"
	err = client.Get(context.Background(), "/orders", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, gotAuthorization)
}

func TestMissingRefreshTokenIsTerminal(t *testing.T) {
	var refreshCalls atomic.Int32
	router := mux.NewRouter()
	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeEnvelope(w, http.StatusOK, "refreshed", map[string]string{"accessToken": "x"})
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "stale-access", "")
	client := New(server.URL, sess)

	err := client.Get(context.Background(), "/orders", nil)
	apiErr := &inErrors.APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	// No refresh token, so no exchange is even attempted.
	assert.EqualValues(t, 0, refreshCalls.Load())
	assert.Equal(t, session.StateAnonymous, sess.State())
}

func TestConcurrent401sShareOneRefreshFlight(t *testing.T) {
	var refreshCalls atomic.Int32
	router := mux.NewRouter()
	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", map[string]string{"id": "order-1"})
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, "refreshed", map[string]string{
			"accessToken":  "new-access",
			"refreshToken": "refresh-2",
		})
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "stale-access", "refresh-1")
	client := New(server.URL, sess)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/orders", nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, refreshCalls.Load())
	assert.Equal(t, "new-access", sess.AccessToken())
}

func TestProactiveRefreshNearExpiry(t *testing.T) {
	var protectedCalls, refreshCalls atomic.Int32
	router := mux.NewRouter()
	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		protectedCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", nil)
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeEnvelope(w, http.StatusOK, "refreshed", map[string]string{
			"accessToken":  "new-access",
			"refreshToken": "refresh-2",
		})
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	// Expires inside the leeway window, so the request refreshes up front and
	// never sees a 401.
	almostExpired := mintToken(t, time.Now().Add(5*time.Second))
	sess := authenticatedSession(t, almostExpired, "refresh-1")
	client := New(server.URL, sess)

	require.NoError(t, client.Get(context.Background(), "/products", nil))
	assert.EqualValues(t, 1, refreshCalls.Load())
	assert.EqualValues(t, 1, protectedCalls.Load())
}

func TestServerErrorSurfacesEnvelopeMessage(t *testing.T) {
	var refreshCalls atomic.Int32
	router := mux.NewRouter()
	router.HandleFunc("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "product not found", nil)
	}).Methods(http.MethodGet)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "access-1", "refresh-1")
	client := New(server.URL, sess)

	err := client.Get(context.Background(), "/products/missing", nil)
	apiErr := &inErrors.APIError{}
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "product not found", apiErr.Message)
	// Non-401 failures never touch the refresh path.
	assert.EqualValues(t, 0, refreshCalls.Load())
	assert.Equal(t, "access-1", sess.AccessToken())
}

func TestPostMarshalsBodyOnceAndReplaysIt(t *testing.T) {
	var bodies []string
	router := mux.NewRouter()
	router.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, _ := json.Marshal(body)
		bodies = append(bodies, string(raw))
		if r.Header.Get("Authorization") != "Bearer new-access" {
			writeEnvelope(w, http.StatusUnauthorized, "token expired", nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, "created", map[string]string{"id": "order-1"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "refreshed", map[string]string{"accessToken": "new-access"})
	}).Methods(http.MethodPost)
	server := httptest.NewServer(router)
	defer server.Close()

	sess := authenticatedSession(t, "stale-access", "refresh-1")
	client := New(server.URL, sess)

	out := map[string]string{}
	require.NoError(t, client.Post(context.Background(), "/orders", map[string]string{"coupon": "SAVE10"}, &out))
	assert.Equal(t, "order-1", out["id"])
	// The replayed request carries the identical payload.
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
}
