package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestParseTrustedProxies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty string", "", 0},
		{"single CIDR", "10.0.0.0/8", 1},
		{"multiple CIDRs", "10.0.0.0/8,172.16.0.0/12,192.168.0.0/16", 3},
		{"single IPv4 address", "10.0.0.1", 1},
		{"single IPv6 address", "::1", 1},
		{"with whitespace", "  10.0.0.0/8 , 172.16.0.0/12  ", 2},
		{"invalid entries skipped", "nope,10.0.0.0/33,10.0.0.1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(ParseTrustedProxies(tt.input)); got != tt.expected {
				t.Errorf("ParseTrustedProxies(%q) = %d networks, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolverIP(t *testing.T) {
	res := FromList("10.0.0.0/8")

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct peer", "203.0.113.9:5555", nil, "203.0.113.9"},
		{"untrusted peer ignores XFF", "203.0.113.9:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.9"},
		{"trusted peer uses X-Real-IP", "10.1.2.3:80", map[string]string{"X-Real-IP": "198.51.100.7"}, "198.51.100.7"},
		{"trusted peer uses XFF client hop", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "198.51.100.8, 10.1.2.3"}, "198.51.100.8"},
		{"spoofed left entry ignored", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.8, 10.9.9.9"}, "198.51.100.8"},
		{"rightmost untrusted hop wins", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "2.2.2.2"},
		{"XFF preferred over X-Real-IP", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "198.51.100.8", "X-Real-IP": "6.6.6.6"}, "198.51.100.8"},
		{"all hops trusted", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "10.0.0.5, 10.0.0.6"}, "10.0.0.5"},
		{"trusted peer garbage header", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "garbage"}, "10.1.2.3"},
		{"garbage right of client stops walk", "10.1.2.3:80", map[string]string{"X-Forwarded-For": "198.51.100.8, garbage"}, "10.1.2.3"},
		{"no port", "203.0.113.10", nil, "203.0.113.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := res.IP(r); got != tt.want {
				t.Errorf("IP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverIP_MultipleHeaderLines(t *testing.T) {
	res := FromList("10.0.0.0/8")
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.1.2.3:80"
	r.Header.Add("X-Forwarded-For", "6.6.6.6")
	r.Header.Add("X-Forwarded-For", "198.51.100.8, 10.0.0.7")

	if got := res.IP(r); got != "198.51.100.8" {
		t.Errorf("IP() = %q, want %q", got, "198.51.100.8")
	}
}

func TestNilResolverTrustsNobody(t *testing.T) {
	var res *Resolver
	if res.IsTrusted("10.0.0.1:1") {
		t.Error("nil resolver must not trust any peer")
	}
}
