package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authorizerdev/authorizer-go"
	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/utils"
)

// ErrInvalidSession is returned when the session cookie does not validate
var ErrInvalidSession = errors.New("session is not valid")

// Authenticator resolves a session cookie to the principal it belongs to
type Authenticator interface {
	ValidateSession(cookie string, roles []string) (*store.Principal, error)
}

// Authorizer validates sessions against an Authorizer service
type Authorizer struct {
	client *authorizer.AuthorizerClient
}

// NewAuthorizer pings the Authorizer service and creates its client
func NewAuthorizer(cfg *config.Config, redirectURL string) (*Authorizer, error) {
	if err := utils.PingAuthorizer(context.Background(), cfg.AuthzURL, cfg.HealthTimeout); err != nil {
		return nil, fmt.Errorf("authorizer ping failed: %w", err)
	}

	logging.Logger.WithFields(map[string]any{
		"authorizerURL": cfg.AuthzURL,
		"clientID":      cfg.AuthzClientID,
		"redirectURL":   redirectURL,
	}).Info("Initializing Authorizer")

	client, err := authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorizer client: %w", err)
	}
	return &Authorizer{client: client}, nil
}

// ValidateSession implements Authenticator
func (a *Authorizer) ValidateSession(cookie string, roles []string) (*store.Principal, error) {
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, ErrInvalidSession
	}

	// the sdk user carries many optional fields; only id and email are kept
	raw, err := json.Marshal(res.User)
	if err != nil {
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}
	var principal store.Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}
	if principal.ID == "" {
		return nil, ErrInvalidSession
	}
	return &principal, nil
}

// StaticAuthenticator accepts a fixed set of session cookies, for local
// development against a sqlite store and for tests
type StaticAuthenticator map[string]store.Principal

// ValidateSession implements Authenticator
func (s StaticAuthenticator) ValidateSession(cookie string, _ []string) (*store.Principal, error) {
	p, ok := s[cookie]
	if !ok {
		return nil, ErrInvalidSession
	}
	return &p, nil
}
