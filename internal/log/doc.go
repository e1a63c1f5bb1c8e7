// Package log builds the slog loggers used by notionscan.
//
// Every logger wraps its handler in a SecureHandler, which masks integration
// tokens and authorization headers before a record is written:
//   - attributes whose key names a credential (token, authorization, secret)
//   - values shaped like a Notion token (secret_..., ntn_...), a bearer
//     header or a JWT
//
// Text output goes through tint and is colored on terminals.
//
//	logger := log.New(os.Stderr, log.FormatText, verbose)
//	logger.Debug("request", "authorization", "Bearer ntn_...") // masked
package log
