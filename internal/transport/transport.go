package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// Connection pool sizes. The API allows a few requests per second, so a
// small pool per host is enough.
const (
	maxIdleConns        = 10
	maxIdleConnsPerHost = 4
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

// Option configures the client built by NewHTTPClient.
type Option func(*options)

type options struct {
	timeout  time.Duration
	proxyURL string
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithProxy routes every request through rawURL. An empty rawURL keeps the
// environment proxy settings.
func WithProxy(rawURL string) Option {
	return func(o *options) {
		o.proxyURL = rawURL
	}
}

// NewHTTPClient returns an HTTP client for API calls.
func NewHTTPClient(opts ...Option) (*http.Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}
	if o.proxyURL != "" {
		if err := configureProxy(t, o.proxyURL); err != nil {
			return nil, err
		}
	}

	return &http.Client{Transport: t, Timeout: o.timeout}, nil
}

// ParseProxyURL validates rawURL and returns it parsed.
func ParseProxyURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyURL, rawURL)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
		return u, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxyScheme, u.Scheme)
}

func configureProxy(t *http.Transport, rawURL string) error {
	u, err := ParseProxyURL(rawURL)
	if err != nil {
		return err
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		t.Proxy = http.ProxyURL(u)
		return nil
	}

	// x/net/proxy resolves socks5 with the proxy's DNS as well, so socks5h
	// is accepted as an alias.
	if u.Scheme == "socks5h" {
		u = &url.URL{Scheme: "socks5", User: u.User, Host: u.Host}
	}
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	t.Proxy = nil
	t.DialContext = dialContext(dialer)
	return nil
}

// dialContext adapts a proxy.Dialer. Dialers without context support are
// raced against ctx; the abandoned dial finishes in the background.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- dialResult{conn, err}
		}()

		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			go func() {
				if r := <-ch; r.conn != nil {
					_ = r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}
