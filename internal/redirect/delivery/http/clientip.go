package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies decides whose forwarding headers are believed. The zero value trusts nobody,
// so the connection's peer address is always the client.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

func NewTrustedProxies(prefixes []netip.Prefix) TrustedProxies {
	return TrustedProxies{prefixes: prefixes}
}

func (t TrustedProxies) contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP replaces r.RemoteAddr with the client address. X-Forwarded-For and X-Real-IP are
// only read when the direct peer is a trusted proxy. The forwarded chain is walked from the
// right and the first hop that is not itself a trusted proxy wins, since everything left of it
// was written by the client.
func (t TrustedProxies) ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip, ok := t.resolve(r); ok {
			r.RemoteAddr = ip.String()
		}
		next.ServeHTTP(w, r)
	})
}

func (t TrustedProxies) resolve(r *http.Request) (netip.Addr, bool) {
	peer, ok := parseAddr(r.RemoteAddr)
	if !ok {
		return netip.Addr{}, false
	}
	if !t.contains(peer) {
		return peer, true
	}

	hops := forwardedHops(r.Header.Values("X-Forwarded-For"))
	for i := len(hops) - 1; i >= 0; i-- {
		if !t.contains(hops[i]) {
			return hops[i], true
		}
	}
	// Every hop is a proxy we run; the left-most is as close to the client as we can get.
	if len(hops) > 0 {
		return hops[0], true
	}
	if xri, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return xri, true
	}
	return peer, true
}

// forwardedHops parses every X-Forwarded-For value in order. Entries that are not addresses
// end the chain at that point, because nothing left of them can be attributed.
func forwardedHops(values []string) []netip.Addr {
	var hops []netip.Addr
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			addr, ok := parseAddr(part)
			if !ok {
				hops = hops[:0]
				continue
			}
			hops = append(hops, addr)
		}
	}
	return hops
}

// parseAddr accepts a bare address or host:port, with or without IPv6 brackets.
func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
