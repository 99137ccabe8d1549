// Package clientip resolves the caller address of a request, honouring
// X-Forwarded-For / X-Real-IP only when the direct peer is a trusted proxy.
package clientip

import (
	"net"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-shop/pkg/logging"
)

// Unknown is returned when no address can be derived.
const Unknown = "unknown"

// Resolver extracts client IPs.
type Resolver struct {
	trusted []*net.IPNet
}

// NewResolver creates a resolver trusting the given networks.
func NewResolver(trusted []*net.IPNet) *Resolver {
	return &Resolver{trusted: trusted}
}

// FromList parses a comma-separated CIDR/IP list, e.g. "10.0.0.0/8,192.168.1.10".
func FromList(list string) *Resolver {
	return NewResolver(ParseTrustedProxies(list))
}

// ParseTrustedProxies parses a comma-separated list of CIDR ranges or IP addresses.
// Invalid entries are logged and skipped.
func ParseTrustedProxies(proxiesStr string) []*net.IPNet {
	var networks []*net.IPNet

	for _, cidr := range strings.Split(proxiesStr, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		// Handle single IPs by appending /32 or /128
		if !strings.Contains(cidr, "/") {
			ip := net.ParseIP(cidr)
			if ip == nil {
				logging.Warn("invalid trusted proxy IP", logging.String("value", cidr))
				continue
			}
			if ip.To4() != nil {
				cidr += "/32"
			} else {
				cidr += "/128"
			}
		}

		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			logging.Warn("invalid trusted proxy CIDR", logging.String("value", cidr), logging.Error(err))
			continue
		}
		networks = append(networks, network)
	}

	return networks
}

// IsTrusted reports whether remoteAddr (host:port or bare IP) is a trusted proxy.
func (res *Resolver) IsTrusted(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return res.trusts(net.ParseIP(host))
}

func (res *Resolver) trusts(ip net.IP) bool {
	if res == nil || ip == nil {
		return false
	}
	for _, network := range res.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// IP returns the client address for r. Behind a trusted peer the
// X-Forwarded-For chain is read right to left and the first hop outside the
// trusted networks wins; entries left of it are client-supplied and ignored.
// X-Real-IP is consulted only when the peer sent no X-Forwarded-For.
func (res *Resolver) IP(r *http.Request) string {
	if res.IsTrusted(r.RemoteAddr) {
		if hops := forwardedHops(r); len(hops) > 0 {
			if ip := res.firstUntrusted(hops); ip != "" {
				return ip
			}
		} else if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}

	if r.RemoteAddr == "" {
		return Unknown
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedHops flattens every X-Forwarded-For line, in order of appearance.
func forwardedHops(r *http.Request) []string {
	var hops []string
	for _, line := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(line, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}

// firstUntrusted walks hops from the right. An unparsable hop stops the walk
// and yields "", so the caller falls back to the peer address. A chain made
// only of trusted proxies resolves to its leftmost hop.
func (res *Resolver) firstUntrusted(hops []string) string {
	var last net.IP
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(hops[i])
		if ip == nil {
			return ""
		}
		if !res.trusts(ip) {
			return ip.String()
		}
		last = ip
	}
	return last.String()
}
