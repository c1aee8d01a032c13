package handlers

import (
	"errors"
	"net/http"
	"time"

	"trainboard-backend/internal/common"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JwtAuth issues and verifies the server-signed identity tokens. The admin
// flag travels inside the signed claims, never in client-controlled state.
type JwtAuth struct {
	Secret string
	MaxAge time.Duration
}

func NewJwtAuth(secret string, maxAge time.Duration) *JwtAuth {
	return &JwtAuth{Secret: secret, MaxAge: maxAge}
}

func (j *JwtAuth) GenerateToken(email string, isAdmin bool) (string, error) {
	claims := &common.JwtCustomClaims{
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.MaxAge)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.Secret))
}

func (j *JwtAuth) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(common.JwtCustomClaims)
		},
		SigningKey: []byte(j.Secret),
	})
}

func (j *JwtAuth) GetIdentity(c echo.Context) (common.Identity, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return common.Identity{}, errors.New("missing token in request context")
	}
	claims, ok := token.Claims.(*common.JwtCustomClaims)
	if !ok {
		return common.Identity{}, errors.New("unexpected claims type")
	}
	return common.Identity{Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}

// RequireAdmin gates a route group on the is_admin claim.
func RequireAdmin(issuer common.JWTIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := issuer.GetIdentity(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if !identity.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
