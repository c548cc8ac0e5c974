// Package authprovider resolves sessions and performs sign-in and user
// administration. Guards and actions treat it as the authentication backend.
package authprovider

import (
	"context"
	"time"

	"launchkit/internal/config"
	"launchkit/internal/email"
	"launchkit/internal/models"
	"launchkit/internal/utils/logger"
)

// SessionData is a resolved session together with its user.
type SessionData struct {
	User    models.User    `json:"user"`
	Session models.Session `json:"session"`
}

// RequestMeta describes the client that opened a session.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Limiter throttles attempts per identifier.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
	Reset(ctx context.Context, identifier string) error
}

// Mailer queues an email for delivery.
type Mailer interface {
	EnqueueEmail(ctx context.Context, msg email.Message) error
}

type Provider struct {
	store     Store
	cfg       config.AuthConfig
	publicURL string
	limiter   Limiter
	mailer    Mailer
	now       func() time.Time
	log       *logger.Logger
}

func New(store Store, cfg config.AuthConfig, publicURL string, limiter Limiter, mailer Mailer) *Provider {
	return &Provider{
		store:     store,
		cfg:       cfg,
		publicURL: publicURL,
		limiter:   limiter,
		mailer:    mailer,
		now:       time.Now,
		log:       logger.New("AUTH"),
	}
}
