package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"slices"
	"time"

	"github.com/nao1215/phishscan/internal/tor"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one resolution including all redirects.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRedirects is the redirect hop limit.
	DefaultMaxRedirects = 10
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "phishscan/1.0 (+https://github.com/nao1215/phishscan)"
)

// DialContextFunc dials a network connection.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// HTTPResolver resolves URLs with HEAD requests. It is safe for concurrent use.
type HTTPResolver struct {
	client       *http.Client
	transport    *http.Transport
	timeout      time.Duration
	maxRedirects int
	userAgent    string
	limiter      *rate.Limiter
	group        singleflight.Group
	logger       *slog.Logger
}

// Option configures an HTTPResolver.
type Option func(*HTTPResolver)

// WithTimeout sets the per-resolution timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *HTTPResolver) {
		r.timeout = d
	}
}

// WithMaxRedirects sets how many redirects are followed before the last
// response is accepted as final.
func WithMaxRedirects(n int) Option {
	return func(r *HTTPResolver) {
		r.maxRedirects = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *HTTPResolver) {
		r.userAgent = ua
	}
}

// WithDialContext routes all connections through dial, e.g. a SOCKS5 proxy.
func WithDialContext(dial DialContextFunc) Option {
	return func(r *HTTPResolver) {
		r.transport.DialContext = dial
		// The proxy resolves names; never leak them through a local proxy setting.
		r.transport.Proxy = nil
	}
}

// WithRateLimit paces outbound resolutions to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *HTTPResolver) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *HTTPResolver) {
		r.logger = logger
	}
}

// NewHTTPResolver creates an HTTPResolver.
func NewHTTPResolver(opts ...Option) *HTTPResolver {
	r := &HTTPResolver{
		transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		userAgent:    DefaultUserAgent,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// cookiejar.New only fails on invalid options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck

	r.client = &http.Client{
		Transport: r.transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds every request before req, so len(via) redirects
			// have been followed once req is sent.
			if len(via) > r.maxRedirects {
				return http.ErrUseLastResponse
			}
			req.Header.Set("User-Agent", r.userAgent)
			return nil
		},
	}
	return r
}

// Resolve follows the redirects of rawURL. Concurrent calls for the same
// URL share one request. The shared request is bounded by the resolver
// timeout only, so one caller giving up never fails the others.
func (r *HTTPResolver) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	u, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	// A malformed onion host would only fail later inside Tor.
	if err := tor.CheckOnionHost(u.Hostname()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResolution, u.Hostname(), err)
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(rawURL, func() (any, error) {
		return r.resolve(flightCtx, rawURL)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrResolution, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.(*Resolution) //nolint:forcetypeassert // resolve only returns *Resolution
		return &Resolution{
			FinalURL:   shared.FinalURL,
			StatusCode: shared.StatusCode,
			Hops:       slices.Clone(shared.Hops),
		}, nil
	}
}

func (r *HTTPResolver) resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrResolution, err)
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("resolution failed", "url", rawURL, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrResolution, err)
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD body is empty

	res := &Resolution{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Hops:       hops(resp),
	}
	r.logger.Debug("resolved",
		"url", rawURL,
		"final_url", res.FinalURL,
		"status", res.StatusCode,
		"hops", len(res.Hops),
		"elapsed", time.Since(start),
	)
	return res, nil
}

// hops walks the redirect chain backwards from the final response.
func hops(resp *http.Response) []string {
	var chain []string
	for req := resp.Request; req != nil; {
		chain = append(chain, req.URL.String())
		if req.Response == nil {
			break
		}
		req = req.Response.Request
	}
	slices.Reverse(chain)
	return chain
}
