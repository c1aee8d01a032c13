package common

import (
	"net/http"

	"trainboard-backend/internal/config"
	"trainboard-backend/internal/email"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/redis/go-redis/v9"
	"github.com/wader/gormstore/v2"
	"gorm.io/gorm"
)

type JwtCustomClaims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Identity is the server-issued claim set resolved once at sign-in and
// passed into every handler. The role flag never comes from the client.
type Identity struct {
	Email   string
	IsAdmin bool
}

type JWTIssuer interface {
	GenerateToken(email string, isAdmin bool) (string, error)
	Middleware() echo.MiddlewareFunc
	GetIdentity(c echo.Context) (Identity, error)
}

type SocialAuthProvider interface {
	CompleteUserAuth(res http.ResponseWriter, req *http.Request) (goth.User, error)
}

type ServerState struct {
	Echo        *echo.Echo
	Config      *config.Config
	DB          *gorm.DB
	Store       *gormstore.Store
	JwtIssuer   JWTIssuer
	Redis       *redis.Client
	EmailClient email.EmailClient
}
