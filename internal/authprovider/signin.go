package authprovider

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"launchkit/internal/apperr"
	"launchkit/internal/email"
	"launchkit/internal/models"
)

const invalidCredentials = "invalid email or password"

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (p *Provider) allow(ctx context.Context, identifier string) error {
	if p.limiter == nil {
		return nil
	}
	ok, err := p.limiter.Allow(ctx, identifier)
	if err != nil {
		// Limiter errors fail open.
		p.log.Warn("rate limiter unavailable: %v", err)
		return nil
	}
	if !ok {
		return apperr.RateLimited("too many attempts, try again later")
	}
	return nil
}

// SignInWithPassword verifies credentials and opens a session. Repeated
// attempts for one email are throttled by the limiter.
func (p *Provider) SignInWithPassword(ctx context.Context, emailAddr, password string, meta RequestMeta) (*SignInResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if err := p.allow(ctx, "signin:"+emailAddr); err != nil {
		return nil, err
	}

	user, err := p.store.FindUserByEmail(ctx, emailAddr)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if user == nil || user.PasswordHash == "" {
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	if user.IsBanned(p.now()) {
		return nil, apperr.Forbidden("account is banned")
	}

	if p.limiter != nil {
		if err := p.limiter.Reset(ctx, "signin:"+emailAddr); err != nil {
			p.log.Warn("failed to reset sign-in limiter: %v", err)
		}
	}
	return p.createSession(ctx, user, meta)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestMagicLink stores a single-use token for emailAddr and queues the sign-in email.
func (p *Provider) RequestMagicLink(ctx context.Context, emailAddr, callbackURL string) error {
	emailAddr = normalizeEmail(emailAddr)
	if err := p.allow(ctx, "magic:"+emailAddr); err != nil {
		return err
	}

	token, err := newToken()
	if err != nil {
		return apperr.Internal(err)
	}
	v := &models.Verification{
		Identifier: emailAddr,
		Value:      hashToken(token),
		ExpiresAt:  p.now().Add(p.cfg.MagicLinkTTL),
	}
	if err := p.store.CreateVerification(ctx, v); err != nil {
		return apperr.Internal(fmt.Errorf("store verification: %w", err))
	}

	q := url.Values{"token": {token}}
	if callbackURL != "" {
		q.Set("callbackURL", callbackURL)
	}
	link := strings.TrimRight(p.publicURL, "/") + "/api/auth/magic-link/verify?" + q.Encode()

	msg, err := email.MagicLink(emailAddr, link, int(p.cfg.MagicLinkTTL.Minutes()))
	if err != nil {
		return apperr.Internal(err)
	}
	if err := p.mailer.EnqueueEmail(ctx, msg); err != nil {
		return apperr.Internal(fmt.Errorf("queue magic link: %w", err))
	}
	return nil
}

// VerifyMagicLink consumes token and signs the user in, creating the account on first use.
func (p *Provider) VerifyMagicLink(ctx context.Context, token string, meta RequestMeta) (*SignInResult, error) {
	if token == "" {
		return nil, apperr.Unauthorized("invalid or expired link")
	}
	v, err := p.store.ConsumeVerification(ctx, hashToken(token))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("consume verification: %w", err))
	}
	if v == nil || !p.now().Before(v.ExpiresAt) {
		return nil, apperr.Unauthorized("invalid or expired link")
	}

	user, err := p.store.FindUserByEmail(ctx, v.Identifier)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		user = &models.User{
			Name:          strings.SplitN(v.Identifier, "@", 2)[0],
			Email:         v.Identifier,
			EmailVerified: true,
			Role:          models.SystemRoleUser,
		}
		if err := p.store.CreateUser(ctx, user); err != nil {
			return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
		}
	} else if !user.EmailVerified {
		user.EmailVerified = true
		if err := p.store.SaveUser(ctx, user); err != nil {
			return nil, apperr.Internal(fmt.Errorf("verify email: %w", err))
		}
	}
	if user.IsBanned(p.now()) {
		return nil, apperr.Forbidden("account is banned")
	}
	return p.createSession(ctx, user, meta)
}

func (p *Provider) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
