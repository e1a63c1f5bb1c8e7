package transport

import "errors"

var (
	// ErrInvalidProxyURL is returned when the proxy URL cannot be parsed or
	// has no host.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: expected scheme://host:port")

	// ErrUnsupportedProxyScheme is returned for schemes other than http,
	// https, socks5 and socks5h.
	ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme: use http, https, socks5 or socks5h")
)
