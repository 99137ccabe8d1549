package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRouteRules(t *testing.T) {
	rr := DefaultRouteRules()

	assert.Equal(t, "/login", rr.LoginPath)
	assert.Equal(t, "/unauthorized", rr.UnauthorizedPath)

	tests := []struct {
		path      string
		protected bool
		prefix    string
		admin     bool
		customer  bool
	}{
		{"/", false, "", true, true},
		{"/api/productos", false, "", true, true},
		{"/api/auth/me", true, "", true, true},
		{"/panel", true, "", true, true},
		{"/panel/admin/productos", true, "/panel/admin", true, false},
		{"/cuenta/pedidos", true, "/cuenta", false, true},
		{"/api/admin/stats", true, "/api/admin/", true, false},
		{"/api/usuarios/4", true, "/api/usuarios", true, false},
		{"/api/carrito", true, "/api/carrito", false, true},
		{"/api/checkout", true, "/api/checkout", false, true},
		{"/api/cuenta/pedidos", true, "/api/cuenta/", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.protected, rr.RequiresAuth(tt.path))
			rule := rr.Match(tt.path)
			if tt.prefix == "" {
				assert.Nil(t, rule)
				return
			}
			require.NotNil(t, rule)
			assert.Equal(t, tt.prefix, rule.Prefix)
			assert.Equal(t, tt.admin, rule.Allows("admin"))
			assert.Equal(t, tt.customer, rule.Allows("customer"))
		})
	}

	assert.Equal(t, "/unauthorized", rr.Match("/panel/admin").Redirect)
	assert.Empty(t, rr.Match("/api/admin/stats").Redirect)
}

func TestParseRouteRules_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "login_path: /login\nunauthorized_path: /u\nprotectd: [/x]\n",
		"relative prefix":   "login_path: /login\nunauthorized_path: /u\nprotected: [panel]\n",
		"rule without role": "login_path: /login\nunauthorized_path: /u\nroles:\n  - prefix: /x\n",
		"relative login":    "login_path: login\nunauthorized_path: /u\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRouteRules([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadRouteRules_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
login_path: /ingresar
unauthorized_path: /prohibido
protected: [/api/admin]
roles:
  - prefix: /api/admin
    roles: [admin]
`), 0o600))

	rr, err := LoadRouteRules(file)
	require.NoError(t, err)
	assert.Equal(t, "/ingresar", rr.LoginPath)
	assert.False(t, rr.RequiresAuth("/cuenta"))

	_, err = LoadRouteRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
