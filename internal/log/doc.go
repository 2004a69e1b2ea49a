// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks values stored under sensitive keys (cookies,
// tokens, passwords, session identifiers) and values that look like secrets.
// URLs are logged with their shape intact but with userinfo passwords and
// credential-looking query or fragment parameters replaced, also when the
// URL is quoted inside an error message:
//
//	logger := log.NewSecureLogger(os.Stderr, true)
//	logger.Debug("resolved", "url", "https://bank.example/login?session_id=abc")
//	// url=https://bank.example/login?session_id=***REDACTED***
//
// NewFileWriter returns a size-rotated log file for long-running servers.
package log
