package authprovider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"launchkit/internal/apperr"
	"launchkit/internal/models"
)

// SignInResult is returned by every successful sign-in flow.
type SignInResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Session   SessionData `json:"session"`
}

func (p *Provider) issueToken(session *models.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.UserID,
		IssuedAt:  jwt.NewNumericDate(p.now()),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(p.cfg.JWTSecret))
}

func (p *Provider) parseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("token expired")
	}
	return claims, nil
}

// TokenFromHeaders reads the bearer token, falling back to the session cookie.
func (p *Provider) TokenFromHeaders(headers http.Header) string {
	if auth := headers.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	r := http.Request{Header: headers}
	if c, err := r.Cookie(p.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// GetSession resolves the caller's session. It returns nil, nil when there is
// no valid session: missing or malformed token, expired session, banned user.
func (p *Provider) GetSession(ctx context.Context, headers http.Header) (*SessionData, error) {
	token := p.TokenFromHeaders(headers)
	if token == "" {
		return nil, nil
	}
	claims, err := p.parseToken(token)
	if err != nil {
		p.log.Debug("rejected session token: %v", err)
		return nil, nil
	}

	session, err := p.store.FindSession(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find session: %w", err))
	}
	if session == nil || session.User == nil || session.UserID != claims.Subject {
		return nil, nil
	}

	now := p.now()
	if !now.Before(session.ExpiresAt) {
		return nil, nil
	}
	if session.User.IsBanned(now) {
		return nil, nil
	}

	user := *session.User
	session.User = nil
	return &SessionData{User: user, Session: *session}, nil
}

func (p *Provider) createSession(ctx context.Context, user *models.User, meta RequestMeta) (*SignInResult, error) {
	session := &models.Session{
		UserID:    user.ID,
		ExpiresAt: p.now().Add(p.cfg.SessionTTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := p.store.CreateSession(ctx, session); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create session: %w", err))
	}
	token, err := p.issueToken(session)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("sign session token: %w", err))
	}
	return &SignInResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Session:   SessionData{User: *user, Session: *session},
	}, nil
}

// SignOut deletes the caller's session. Signing out without a session is not an error.
func (p *Provider) SignOut(ctx context.Context, headers http.Header) error {
	token := p.TokenFromHeaders(headers)
	if token == "" {
		return nil
	}
	claims, err := p.parseToken(token)
	if err != nil {
		return nil
	}
	if err := p.store.DeleteSession(ctx, claims.ID); err != nil {
		return apperr.Internal(fmt.Errorf("delete session: %w", err))
	}
	return nil
}
