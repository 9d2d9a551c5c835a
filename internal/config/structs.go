package config

import (
	"time"

	"github.com/shiftdesk/shiftdesk/internal/logger"
)

// Auth holds the settings for bearer-token identity resolution.
type Auth struct {
	// JWTSecret is the HMAC secret shared with the identity provider.
	JWTSecret string
	// TokenTTL is the maximum accepted token age for dev-mode issued tokens.
	TokenTTL time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Auth      Auth
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	MetricsPort    int    // listening port for the prometheus side listener (0 = disabled)
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
