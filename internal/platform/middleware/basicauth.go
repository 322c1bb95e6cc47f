package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// BasicAuthConfig holds HTTP Basic authentication settings.
type BasicAuthConfig struct {
	Enabled  bool
	Username string
	Password string
	Realm    string
}

// BasicAuth returns middleware that gates every request behind HTTP Basic
// authentication. When disabled (local development) all requests pass
// through. Credential comparison is constant-time.
func BasicAuth(cfg BasicAuthConfig) echo.MiddlewareFunc {
	realm := cfg.Realm
	if realm == "" {
		realm = "Care Plan Generator - Lamar Health"
	}

	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Skipper: func(c echo.Context) bool {
			return !cfg.Enabled
		},
		Realm: realm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
			if userOK && passOK {
				c.Set("auth_user", username)
				return true, nil
			}
			return false, nil
		},
	})
}
