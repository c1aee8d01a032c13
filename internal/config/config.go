package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string
		Host string
		TLS  struct {
			Enabled  bool
			CertFile string
			KeyFile  string
		}
		DeployDomain string
		Debug        bool
	}
	Auth struct {
		GoogleKey      string
		GoogleSecret   string
		GoogleRedirect string
		SessionSecret  string
		// Where the web app picks up the issued token after the OAuth dance.
		LoginRedirectURL string
		// Where unregistered emails get bounced to.
		NotRegisteredURL string
		TokenMaxAgeHours int
	}
	Database struct {
		DSN      string
		RedisURI string
	}
	Resend struct {
		APIKey        string
		DefaultSender string
	}
	Sentry struct {
		DSN string
	}
}

func Load() (*Config, error) {

	envStack := os.Getenv("ENV_STACK")

	if envStack != "" {
		filePath := "./env-files/.env." + envStack
		err := godotenv.Load(filePath)
		if err != nil {
			fmt.Printf("Error loading .env file: %s\n", err)
		}
	}

	c := &Config{}

	c.Server.Port = os.Getenv("SERVER_PORT")
	if c.Server.Port == "" {
		c.Server.Port = "1926"
	}

	c.Server.Host = os.Getenv("SERVER_HOST")
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}

	c.Server.DeployDomain = os.Getenv("DEPLOY_DOMAIN")
	if c.Server.DeployDomain == "" {
		c.Server.DeployDomain = c.Server.Host + ":" + c.Server.Port
	}

	c.Server.Debug = os.Getenv("ENABLE_DEBUG_ENDPOINTS") == "true"

	useTLS := os.Getenv("USE_TLS")
	c.Server.TLS.Enabled = useTLS != "false" && useTLS != "0"
	c.Server.TLS.CertFile = "./certs/localhost.pem"
	c.Server.TLS.KeyFile = "./certs/localhost-key.pem"

	c.Auth.SessionSecret = os.Getenv("SESSION_SECRET")

	c.Auth.GoogleKey = os.Getenv("GOOGLE_KEY")
	c.Auth.GoogleSecret = os.Getenv("GOOGLE_SECRET")
	c.Auth.GoogleRedirect = fmt.Sprintf("https://%s/api/auth/social/google/callback", c.Server.DeployDomain)

	c.Auth.LoginRedirectURL = os.Getenv("LOGIN_REDIRECT_URL")
	if c.Auth.LoginRedirectURL == "" {
		c.Auth.LoginRedirectURL = "/login"
	}
	c.Auth.NotRegisteredURL = os.Getenv("NOT_REGISTERED_URL")
	if c.Auth.NotRegisteredURL == "" {
		c.Auth.NotRegisteredURL = "/not-registered"
	}

	// Tokens are short-lived; identity is re-resolved on every sign-in.
	c.Auth.TokenMaxAgeHours = 1

	c.Database.DSN = os.Getenv("DATABASE_DSN")
	c.Database.RedisURI = os.Getenv("REDIS_URI")

	c.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	c.Resend.DefaultSender = os.Getenv("RESEND_DEFAULT_SENDER")
	if c.Resend.DefaultSender == "" {
		c.Resend.DefaultSender = "noreply@trainboard.app"
	}

	c.Sentry.DSN = os.Getenv("SENTRY_DSN")

	return c, nil
}
