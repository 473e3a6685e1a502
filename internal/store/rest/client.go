// client.go
//
// A row-level secured property, delivery instruction and package store for landlords
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of landlord-propsdb.
// landlord-propsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// landlord-propsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with landlord-propsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package rest implements the table store contract over the store's HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/config"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// SessionCookie is the name of the session cookie the store authenticates
const SessionCookie = "cookie_session"

const defaultTimeout = 10 * time.Second

// Client is a store.Client and store.PrincipalSource speaking the /rest/v1 and
// /auth/v1 HTTP API
type Client struct {
	baseURL   string
	session   string
	timeout   time.Duration
	userAgent string
}

var (
	_ store.Client          = (*Client)(nil)
	_ store.PrincipalSource = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithSession sets the session cookie value sent with every request
func WithSession(session string) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a client for the store at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		timeout:   defaultTimeout,
		userAgent: "landlord-propsdb",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the landlord client configuration
func NewFromConfig(cfg *config.ClientConfig) *Client {
	return New(cfg.StoreURL, WithSession(cfg.StoreSession), WithTimeout(cfg.StoreTimeout))
}

// SelectParam renders the select parameter for embeds, e.g. "*,property_instructions(*)"
func SelectParam(embed []string) string {
	parts := []string{"*"}
	for _, e := range embed {
		parts = append(parts, e+"(*)")
	}
	return strings.Join(parts, ",")
}

// Select implements store.Client
func (c *Client) Select(ctx context.Context, table string, q store.Query) ([]byte, error) {
	values := url.Values{}
	values.Set("select", SelectParam(q.Embed))
	addFilters(values, q.Filters)
	if len(q.Order) > 0 {
		orders := make([]string, len(q.Order))
		for i, o := range q.Order {
			orders[i] = o.Encode()
		}
		values.Set("order", strings.Join(orders, ","))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	_, body, err := c.do(ctx, fiber.MethodGet, tablePath(table), values, nil, http.StatusOK)
	return body, err
}

// Insert implements store.Client
func (c *Client) Insert(ctx context.Context, table string, rows any) ([]byte, error) {
	_, body, err := c.do(ctx, fiber.MethodPost, tablePath(table), nil, rows, http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		// inserted without a representation
		return []byte("[]"), nil
	}
	return body, nil
}

// Update implements store.Client
func (c *Client) Update(ctx context.Context, table string, patch any, filters ...store.Filter) error {
	values := url.Values{}
	addFilters(values, filters)
	_, _, err := c.do(ctx, fiber.MethodPatch, tablePath(table), values, patch, http.StatusNoContent, http.StatusOK)
	return err
}

// Delete implements store.Client
func (c *Client) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	values := url.Values{}
	addFilters(values, filters)
	_, _, err := c.do(ctx, fiber.MethodDelete, tablePath(table), values, nil, http.StatusNoContent, http.StatusOK)
	return err
}

// CurrentPrincipal implements store.PrincipalSource
func (c *Client) CurrentPrincipal(ctx context.Context) (*store.Principal, error) {
	if c.session == "" {
		return nil, store.ErrNoSession
	}

	_, body, err := c.do(ctx, fiber.MethodGet, "/auth/v1/user", nil, nil, http.StatusOK)
	if err != nil {
		switch store.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, store.ErrNoSession
		}
		return nil, err
	}

	var p store.Principal
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode principal: %w", err)
	}
	if p.ID == "" {
		return nil, store.ErrNoSession
	}
	return &p, nil
}

func tablePath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

func addFilters(values url.Values, filters []store.Filter) {
	for _, f := range filters {
		values.Add(f.Column, f.Encode())
	}
}

// do sends one request and returns the status and body when the status is expected
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, expect ...int) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)

	agent.UserAgent(c.userAgent)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeout)
	if c.session != "" {
		agent.Cookie(SessionCookie, c.session)
	}
	if len(query) > 0 {
		agent.QueryString(query.Encode())
	}
	if body != nil {
		agent.Set("Prefer", "return=representation")
		agent.JSON(body)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, store.NewError(http.StatusServiceUnavailable, store.TypeTransport, err.Error())
	}

	// Bytes releases the agent
	code, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, store.NewError(http.StatusServiceUnavailable, store.TypeTransport, errs[0].Error())
	}

	for _, e := range expect {
		if code == e {
			return code, respBody, nil
		}
	}
	return code, nil, decodeError(code, respBody)
}

// errorEnvelope is the store's JSON error body
type errorEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func decodeError(code int, body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(code)
		}
		return store.NewError(code, "", msg)
	}
	return store.NewError(code, env.Type, env.Message)
}
