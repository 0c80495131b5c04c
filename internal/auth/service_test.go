package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zurura-client/internal/api"
	"zurura-client/internal/httpclient"
	"zurura-client/internal/model"
	"zurura-client/internal/session"
	"zurura-client/internal/tokenstore"
	"zurura-client/pkg/apierror"
)

type fixture struct {
	service *Service
	session *session.Session
	store   *tokenstore.MemoryStore
}

func newFixture(t *testing.T, handler http.HandlerFunc) fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := tokenstore.NewMemoryStore()
	sess := session.New(context.Background(), store)
	client, err := httpclient.New(srv.URL, httpclient.WithTokenSource(sess), httpclient.WithSessionExpiry(sess, nil))
	require.NoError(t, err)

	return fixture{
		service: NewService(api.New(client).Auth, sess, nil),
		session: sess,
		store:   store,
	}
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"token":"t1","user":{"id":"1","role":"commuter"}}`))
	})
	ctx := context.Background()

	result, err := f.service.Login(ctx, "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "t1", result.Token)

	var token string
	require.True(t, f.store.Get(ctx, tokenstore.KeyToken, &token))
	assert.Equal(t, "t1", token)

	var user model.User
	require.True(t, f.store.Get(ctx, tokenstore.KeyUser, &user))
	assert.Equal(t, "1", user.ID)
	assert.Equal(t, model.RoleCommuter, user.Role)

	assert.True(t, f.service.IsAuthenticated(ctx))
	assert.Equal(t, session.StateAuthenticated, f.service.State())
}

func TestLoginFailureEnvelopeWithStatus200(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"message":"Invalid credentials"}`))
	})
	ctx := context.Background()

	_, err := f.service.Login(ctx, "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", apierror.From(err).Message)

	var token string
	assert.False(t, f.store.Get(ctx, tokenstore.KeyToken, &token))
	var user model.User
	assert.False(t, f.store.Get(ctx, tokenstore.KeyUser, &user))
	assert.False(t, f.service.IsAuthenticated(ctx))
	assert.Equal(t, session.StateError, f.service.State())
}

func TestLoginRejectedByStatus(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid Credentials"}`))
	})

	_, err := f.service.Login(context.Background(), "a@b.com", "wrong")
	assert.True(t, apierror.IsUnauthorized(err))
	assert.Equal(t, "Invalid Credentials", apierror.From(err).Message)
}

func TestLoginAfterFailureStartsOver(t *testing.T) {
	var attempts atomic.Int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"error":"bad password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"t2","user":{"id":"2"}}`))
	})
	ctx := context.Background()

	_, err := f.service.Login(ctx, "a@b.com", "x")
	require.Error(t, err)
	assert.Equal(t, "bad password", err.Error())

	_, err = f.service.Login(ctx, "a@b.com", "y")
	require.NoError(t, err)
	assert.Equal(t, session.StateAuthenticated, f.service.State())
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	f := newFixture(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	_, err := f.service.Login(context.Background(), "  ", "x")
	assert.ErrorIs(t, err, model.ErrMissingCredential)
	assert.Equal(t, int32(0), hits.Load())
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})
	require.NoError(t, f.session.Begin())

	_, err := f.service.Login(context.Background(), "a@b.com", "x")
	assert.ErrorIs(t, err, model.ErrAuthInProgress)
}

func TestRegisterEndpoints(t *testing.T) {
	var paths []string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"t1","user":{"id":"1"}}`))
	})
	ctx := context.Background()

	_, err := f.service.Register(ctx, model.RegisterRequest{Email: "s@uni.ac.ke", Password: "x", SchoolName: "UoN"})
	require.NoError(t, err)
	_, err = f.service.RegisterOperator(ctx, model.OperatorRegisterRequest{Email: "op@sacco.co.ke", Password: "x", Company: "Super Metro"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/auth/register", "/auth/register/op"}, paths)
}

func TestLogoutClearsLocallyWhenRemoteFails(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Failed to log out"}`))
	})
	ctx := context.Background()
	require.NoError(t, f.session.Establish(ctx, "t1", model.User{ID: "1"}))

	err := f.service.Logout(ctx)
	require.Error(t, err)
	assert.Equal(t, "Failed to log out", apierror.From(err).Message)

	var token string
	assert.False(t, f.store.Get(ctx, tokenstore.KeyToken, &token))
	assert.Equal(t, session.StateAnonymous, f.service.State())
}

func TestLogoutWithoutSessionSkipsRemote(t *testing.T) {
	var hits atomic.Int32
	f := newFixture(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	require.NoError(t, f.service.Logout(context.Background()))
	assert.Equal(t, int32(0), hits.Load())
}

func TestCurrentUser(t *testing.T) {
	f := newFixture(t, func(http.ResponseWriter, *http.Request) {})
	ctx := context.Background()

	_, ok := f.service.CurrentUser(ctx)
	assert.False(t, ok)

	require.NoError(t, f.session.Establish(ctx, "t1", model.User{ID: "1", FirstName: "Amina"}))
	user, ok := f.service.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "Amina", user.FirstName)
}
