// Package tor routes URL resolution through a SOCKS5 proxy, typically Tor.
//
// Resolving a suspicious link sends a request to infrastructure run by the
// attacker. Going through a proxy keeps the analyst's own address out of
// their logs. Client wraps any SOCKS5 proxy ("--proxy host:port");
// EmbeddedTor starts a private Tor daemon with tornago ("--tor") and hands
// out Clients bound to it. CheckOnionHost rejects .onion hosts that are
// not valid v3 addresses before any connection is attempted.
package tor
