package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue replaces every redacted value.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys and query parameter names whose values
// are always masked. Phishing URLs routinely carry the victim's session or
// one-time codes in these parameters.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,

	// Credentials and sessions
	"password":      true,
	"passwd":        true,
	"pass":          true,
	"pwd":           true,
	"secret":        true,
	"token":         true,
	"access_token":  true,
	"refresh_token": true,
	"id_token":      true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"private_key":   true,
	"secret_key":    true,
	"session":       true,
	"session_id":    true,
	"sessionid":     true,
	"sid":           true,
	"jsessionid":    true,
	"credential":    true,
	"credentials":   true,
	"auth":          true,

	// Values a phishing kit asks the victim for
	"pin":  true,
	"otp":  true,
	"ssn":  true,
	"cvv":  true,
	"card": true,
	"iban": true,

	// OAuth and signed-link parameters
	"code":   true,
	"key":    true,
	"sig":    true,
	"hash":   true,
	"nonce":  true,
	"state":  true,
	"ticket": true,
}

// sensitiveKeywords mask any key that contains them. The bare word "key" is
// not one of them: "primary_key" and "cache_key" are harmless.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth",
	"credential", "private", "session",
}

// publicKeys hold digests that look like API keys but are published on
// purpose, such as the model fingerprint.
var publicKeys = map[string]bool{
	"fingerprint":       true,
	"model_fingerprint": true,
}

// sensitiveValues mask a whole string value whatever its key.
var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),
	regexp.MustCompile(`^[a-zA-Z0-9]{32,}$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// embeddedURL finds URLs inside longer text such as error messages.
var embeddedURL = regexp.MustCompile(`(?i)\bhttps?://[^\s"'<>` + "`" + `]+`)

// SecureHandler is an slog.Handler that redacts credentials before records
// reach the wrapped handler. Sensitive keys and token-shaped values are
// masked entirely. URLs keep their shape so a log still shows which site was
// checked, but lose userinfo passwords and credential query or fragment
// parameters, including URLs quoted inside error messages.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler means slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the attributes of r and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, RedactText(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs redacts attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	key := strings.ToLower(a.Key)
	if isSensitiveKey(key) {
		return slog.String(a.Key, MaskValue)
	}
	if publicKeys[key] {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, RedactText(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case *url.URL:
			if v == nil {
				return a
			}
			return slog.String(a.Key, RedactURL(v.String()))
		case error:
			// Transport errors quote the request URL.
			var uerr *url.Error
			if errors.As(v, &uerr) || embeddedURL.MatchString(v.Error()) {
				return slog.String(a.Key, RedactText(v.Error()))
			}
		}
	}
	return a
}

// RedactText masks s entirely if it looks like a credential, and otherwise
// redacts every URL it contains.
func RedactText(s string) string {
	if isSensitiveValue(s) {
		return MaskValue
	}
	if !strings.Contains(s, "://") {
		return s
	}
	return embeddedURL.ReplaceAllStringFunc(s, RedactURL)
}

// RedactURL masks the userinfo password and every credential-looking query
// or fragment parameter of rawURL. The user name is kept because a
// "brand@host" prefix is itself a phishing signal. Values that do not parse
// as absolute URLs are returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "REDACTED")
			changed = true
		}
	}

	if q, ok := redactParams(u.RawQuery); ok {
		u.RawQuery = q
		changed = true
	}

	// Implicit OAuth flows put tokens in the fragment: #access_token=...
	if u.Fragment != "" {
		if f, ok := redactParams(u.EscapedFragment()); ok {
			if unescaped, err := url.PathUnescape(f); err == nil {
				u.Fragment = unescaped
				u.RawFragment = f
				changed = true
			}
		}
	}

	if !changed {
		return rawURL
	}
	return u.String()
}

// redactParams masks sensitive values in an escaped "a=1&b=2" string. The
// parameter order and every other byte are kept.
func redactParams(raw string) (string, bool) {
	if raw == "" || !strings.Contains(raw, "=") {
		return raw, false
	}
	changed := false
	parts := strings.Split(raw, "&")
	for i, part := range parts {
		name, _, hasValue := strings.Cut(part, "=")
		if !hasValue {
			continue
		}
		key, err := url.QueryUnescape(name)
		if err != nil {
			key = name
		}
		if isSensitiveKey(strings.ToLower(key)) {
			parts[i] = name + "=" + MaskValue
			changed = true
		}
	}
	return strings.Join(parts, "&"), changed
}

func isSensitiveKey(key string) bool {
	return sensitiveKeys[key] || containsSensitiveKeyword(key)
}

func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitiveValues {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger returns a text logger on w that redacts credentials.
// verbose lowers the level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output, used for log files.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
