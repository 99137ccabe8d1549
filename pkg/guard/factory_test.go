package guard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-shop/pkg/auth"
	"github.com/dd0wney/cluso-shop/pkg/ratelimit"
	"github.com/dd0wney/cluso-shop/pkg/seclog"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

const testSecret = "guard-test-secret-that-is-long-enough-123"

type fixture struct {
	factory *Factory
	tokens  *auth.TokenManager
	rec     *seclog.Recorder
	reasons []string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)

	fx := &fixture{tokens: tokens, rec: &seclog.Recorder{}}
	log := seclog.NewNop(seclog.WithHook(fx.rec.Hook()))
	opts = append([]Option{WithObserver(func(reason string) { fx.reasons = append(fx.reasons, reason) })}, opts...)
	fx.factory = New(tokens, log, opts...)
	return fx
}

func (fx *fixture) token(t *testing.T, id int64, role string) string {
	t.Helper()
	tok, err := fx.tokens.Sign(auth.Identity{ID: id, Email: "user@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

type envelope struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message"`
	Errors         map[string][]string `json:"errors"`
	AllowedMethods []string            `json:"allowedMethods"`
	Error          string              `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func jsonRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func okHandler(called *bool) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, c *Context) error {
		*called = true
		WriteJSON(w, http.StatusOK, map[string]any{"success": true})
		return nil
	}
}

// spySchema records whether decoding was attempted.
type spySchema struct {
	calls int
	inner validation.Schema
}

func (s *spySchema) Decode(data []byte) (any, error) {
	s.calls++
	return s.inner.Decode(data)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{AllowedMethods: []string{"GET", "POST"}}, okHandler(&called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/x", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
	env := decode(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, "Método PUT no permitido", env.Message)
	assert.Equal(t, []string{"GET", "POST"}, env.AllowedMethods)
	assert.False(t, called)
}

func TestHandler_RateLimit(t *testing.T) {
	fx := newFixture(t)
	store := ratelimit.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	limiter := ratelimit.New(ratelimit.Config{Name: "t", Window: time.Minute, MaxRequests: 2}, store)

	called := false
	h := fx.factory.Handler(Config{RateLimit: limiter}, okHandler(&called))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Len(t, fx.rec.Events(seclog.EventRateLimitExceeded), 1)
	assert.Contains(t, fx.reasons, ReasonRateLimit)
}

func TestHandler_AnonymousReachesCallbackWithNilUser(t *testing.T) {
	fx := newFixture(t)
	var got *Context
	h := fx.factory.Handler(Config{}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
		got = c
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	r := httptest.NewRequest(http.MethodGet, "/api/productos", nil)
	r.Header.Set("User-Agent", "test-agent")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	require.NotNil(t, got)
	assert.Nil(t, got.User)
	assert.Nil(t, got.Body)
	assert.Equal(t, "test-agent", got.UserAgent)
	assert.Equal(t, "192.0.2.1", got.IP)
}

func TestHandler_Authentication(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{RequireAuth: true}, okHandler(&called))

	t.Run("no cookie", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cuenta/pedidos", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, MsgNotAuthenticated, decode(t, rr).Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/cuenta/pedidos", nil)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, MsgInvalidToken, decode(t, rr).Message)
	})

	assert.False(t, called)
	assert.Len(t, fx.rec.Events(seclog.EventUnauthorizedAccess), 2)

	t.Run("valid token", func(t *testing.T) {
		var user *auth.Identity
		h := fx.factory.Handler(Config{RequireAuth: true}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			user = c.User
			return nil
		})
		r := httptest.NewRequest(http.MethodGet, "/api/cuenta/pedidos", nil)
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: fx.token(t, 12, auth.RoleCustomer)})
		h.ServeHTTP(httptest.NewRecorder(), r)
		require.NotNil(t, user)
		assert.Equal(t, int64(12), user.ID)
	})
}

func TestHandler_RoleMismatchLogsIdentityOnce(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{RequireAuth: true, AllowedRoles: []string{auth.RoleAdmin}}, okHandler(&called))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: fx.token(t, 77, auth.RoleCustomer)})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, MsgForbidden, decode(t, rr).Message)
	assert.False(t, called)

	events := fx.rec.Events(seclog.EventUnauthorizedAccess)
	require.Len(t, events, 1)
	assert.Equal(t, int64(77), events[0].UserID)
	assert.Equal(t, "user@example.com", events[0].UserEmail)
	assert.Equal(t, "/api/admin/stats", events[0].Endpoint)
}

func TestHandler_ContentType(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{}, okHandler(&called))

	r := httptest.NewRequest(http.MethodPost, "/api/x", strings.NewReader(`{"a":1}`))
	r.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, MsgContentType, decode(t, rr).Message)
	assert.False(t, called)
}

func TestHandler_BodyTooLargeNeverParsed(t *testing.T) {
	fx := newFixture(t)
	schema := &spySchema{inner: validation.For[validation.LoginRequest]()}
	called := false
	h := fx.factory.Handler(Config{Schema: schema, MaxBodySize: 64}, okHandler(&called))

	body := `{"email":"a@example.com","password":"` + strings.Repeat("x", 200) + `"}`

	for name, contentLength := range map[string]bool{"declared": true, "chunked": false} {
		t.Run(name, func(t *testing.T) {
			r := jsonRequest(http.MethodPost, "/api/auth/login", body)
			if !contentLength {
				r.ContentLength = -1
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, r)

			assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
			assert.Equal(t, MsgBodyTooLarge, decode(t, rr).Message)
		})
	}

	assert.Zero(t, schema.calls)
	assert.False(t, called)
	events := fx.rec.Events(seclog.EventSuspiciousActivity)
	require.Len(t, events, 2)
	assert.Equal(t, "Actividad sospechosa: BODY_TOO_LARGE", events[0].Message)
	assert.EqualValues(t, 64, events[0].Data["maxSize"])
}

func TestHandler_SuspiciousBody(t *testing.T) {
	fx := newFixture(t)
	schema := &spySchema{inner: validation.For[validation.LoginRequest]()}
	called := false
	h := fx.factory.Handler(Config{Schema: schema}, okHandler(&called))

	tests := []struct {
		name  string
		body  string
		event seclog.Event
	}{
		{"sql injection", `{"email":"a@example.com","password":"' OR 1=1 --"}`, seclog.EventSQLInjectionAttempt},
		{"xss", `{"email":"a@example.com","password":"<script>alert(1)</script>"}`, seclog.EventXSSAttempt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx.rec.Reset()
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, jsonRequest(http.MethodPost, "/api/auth/login", tt.body))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, MsgSuspiciousInput, decode(t, rr).Message)
			assert.Len(t, fx.rec.Events(tt.event), 1)
		})
	}
	assert.Zero(t, schema.calls)
	assert.False(t, called)
}

func TestHandler_InvalidJSON(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{}, okHandler(&called))

	for _, body := range []string{`{"a":`, `{"a":1} trailing`, ``} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, jsonRequest(http.MethodPost, "/api/x", body))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, MsgInvalidJSON, decode(t, rr).Message)
	}
	assert.False(t, called)
}

func TestHandler_SchemaFailure(t *testing.T) {
	fx := newFixture(t)
	called := false
	h := fx.factory.Handler(Config{Schema: validation.For[validation.CartAddRequest]()}, okHandler(&called))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonRequest(http.MethodPost, "/api/carrito", `{"producto_id":0,"cantidad":500}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	env := decode(t, rr)
	assert.Equal(t, MsgInvalidData, env.Message)
	assert.Contains(t, env.Errors, "producto_id")
	assert.Contains(t, env.Errors, "cantidad")
	assert.False(t, called)
	assert.Empty(t, fx.rec.Entries(), "client input errors are not security events")
}

func TestHandler_ShallowSanitize(t *testing.T) {
	fx := newFixture(t)

	t.Run("map body", func(t *testing.T) {
		var body map[string]any
		h := fx.factory.Handler(Config{}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			body = c.Body.(map[string]any)
			return nil
		})
		h.ServeHTTP(httptest.NewRecorder(), jsonRequest(http.MethodPost, "/api/x",
			`{"nombre":"  Ana<b> ","tags":["<i>x",2],"nested":{"a":"<u>"}}`))

		require.NotNil(t, body)
		assert.Equal(t, "Anab", body["nombre"])
		assert.Equal(t, []any{"ix", json.Number("2")}, body["tags"])
		assert.Equal(t, map[string]any{"a": "<u>"}, body["nested"])
	})

	t.Run("struct body with html field", func(t *testing.T) {
		var got *validation.ProductRequest
		h := fx.factory.Handler(Config{
			Schema:     validation.For[validation.ProductRequest](),
			HTMLFields: []string{"descripcion"},
		}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			got = Body[validation.ProductRequest](c)
			return nil
		})
		h.ServeHTTP(httptest.NewRecorder(), jsonRequest(http.MethodPost, "/api/admin/productos",
			`{"nombre":"Mate <b>grande</b>","descripcion":"<b>Calabaza</b> curada","precio":10,"stock":3,"categoria_id":1,"sku":"M-1"}`))

		require.NotNil(t, got)
		assert.Equal(t, "Mate bgrande/b", got.Nombre)
		assert.Equal(t, "<b>Calabaza</b> curada", got.Descripcion)
	})
}

func TestHandler_CallbackErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		fx := newFixture(t)
		h := fx.factory.Handler(Config{}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			return NotFound("Producto no encontrado")
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/productos/x", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Producto no encontrado", decode(t, rr).Message)
		assert.Empty(t, fx.rec.Entries())
	})

	t.Run("internal error outside production", func(t *testing.T) {
		fx := newFixture(t)
		h := fx.factory.Handler(Config{}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			return errors.New("db down")
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/x", strings.NewReader(`{}`)))
		// content type missing: rejected before the callback
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, jsonRequest(http.MethodPost, "/api/x", `{}`))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		env := decode(t, rr)
		assert.Equal(t, MsgInternalError, env.Message)
		assert.Equal(t, "db down", env.Error)

		entries := fx.rec.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, seclog.LevelError, entries[0].Level)
		assert.Equal(t, "Error en /api/x", entries[0].Message)
		assert.Equal(t, "POST", entries[0].Method)
	})

	t.Run("panic in production", func(t *testing.T) {
		var failed []error
		fx := newFixture(t, WithProduction(true), WithFailureHook(func(r *http.Request, err error) {
			failed = append(failed, err)
		}))
		h := fx.factory.Handler(Config{}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
			panic("boom")
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/x", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		env := decode(t, rr)
		assert.Equal(t, MsgInternalError, env.Message)
		assert.Empty(t, env.Error)
		assert.Len(t, fx.rec.Entries(), 1)
		require.Len(t, failed, 1)
		assert.EqualError(t, failed[0], "panic: boom")
	})
}

func TestRoute(t *testing.T) {
	fx := newFixture(t)
	var hit string
	h := fx.factory.Route(map[string]Endpoint{
		http.MethodGet: {Handle: func(w http.ResponseWriter, r *http.Request, c *Context) error {
			hit = "get"
			return nil
		}},
		http.MethodDelete: {Config: Config{RequireAuth: true}, Handle: func(w http.ResponseWriter, r *http.Request, c *Context) error {
			hit = "delete"
			return nil
		}},
	})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/carrito", nil))
	assert.Equal(t, "get", hit)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/carrito", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/carrito", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "DELETE, GET", rr.Header().Get("Allow"))
}

func TestHandler_NoBodyLeavesBodyToCallback(t *testing.T) {
	fx := newFixture(t)
	var got string
	h := fx.factory.Handler(Config{NoBody: true}, func(w http.ResponseWriter, r *http.Request, c *Context) error {
		assert.Nil(t, c.Body)
		buf := new(strings.Builder)
		_, err := io.Copy(buf, r.Body)
		got = buf.String()
		return err
	})

	r := httptest.NewRequest(http.MethodPost, "/api/admin/upload/producto", strings.NewReader("raw-bytes"))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "raw-bytes", got)
}

func TestFactory_Identify(t *testing.T) {
	fx := newFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	assert.Nil(t, fx.factory.Identify(r))

	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
	assert.Nil(t, fx.factory.Identify(r))

	r = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: fx.token(t, 9, auth.RoleCustomer)})
	id := fx.factory.Identify(r)
	require.NotNil(t, id)
	assert.Equal(t, int64(9), id.ID)
}
