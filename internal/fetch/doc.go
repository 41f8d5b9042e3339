// Package fetch downloads sheet pages over HTTP.
//
// A Fetcher performs a single GET with a bounded body size and returns the
// page decoded to UTF-8. Requests can go directly, through a SOCKS5 proxy
// (ProxyClient), or through a private Tor daemon started on demand
// (EmbeddedTor). Every failure of the request itself is reported as a
// *FetchError so callers can tell transport problems from later stages.
package fetch
