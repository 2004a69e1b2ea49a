// Package resolver follows a URL's redirect chain to its final destination.
//
// HTTPResolver issues HEAD requests and follows redirects up to a hop limit,
// recording every URL visited. Concurrent requests for the same URL share a
// single network round trip, and an optional token bucket paces outbound
// requests. Dialing can be routed through a SOCKS5 proxy.
//
// Every failure is reported as an error wrapping ErrResolution. Callers
// decide what a failed resolution means for the verdict.
package resolver
