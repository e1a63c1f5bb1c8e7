// Package transport builds the HTTP client used for API calls.
//
// Requests go direct, through the proxy named by the HTTP_PROXY family of
// environment variables, or through an explicit proxy URL. http and https
// proxies use the standard CONNECT tunnel; socks5 and socks5h proxies dial
// through golang.org/x/net/proxy.
package transport
