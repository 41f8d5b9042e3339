// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of login parameters in logged URLs
//   - Shortening of very long values such as page markup
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// Private sheets are fetched with the session cookie of a logged-in browser
// (uid_key, skey, p_skey and friends). The SecureHandler masks those cookies
// by key name and by value pattern, so a pasted cookie string never reaches
// the log even under an unexpected key. Even in verbose mode, sensitive
// values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "uid_key=abc123",  // Will be replaced by MaskValue
//	    "url", "https://docs.qq.com/sheet/DUnRhbGVz",
//	)
//
//	slog.SetDefault(logger)
//
// The logger can be passed to tornago components that accept *slog.Logger.
package log
