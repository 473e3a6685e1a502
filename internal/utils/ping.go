package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// DefaultPingTimeout bounds a ping when no timeout is configured
const DefaultPingTimeout = 1500 * time.Millisecond

// PingService dials the host of serviceURL over TCP, giving up after timeout or when
// ctx is done. A zero timeout uses DefaultPingTimeout.
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	address, err := dialAddress(serviceURL)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks the Authorizer service accepts connections
func PingAuthorizer(ctx context.Context, authzURL string, timeout time.Duration) error {
	return PingService(ctx, authzURL, timeout)
}

// PingStore checks a store server accepts connections on port of this host
func PingStore(ctx context.Context, port string, timeout time.Duration) error {
	return PingService(ctx, "http://"+net.JoinHostPort("localhost", port), timeout)
}

func dialAddress(serviceURL string) (string, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	host := parsedURL.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		port = "80"
		if parsedURL.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(host, port), nil
}
