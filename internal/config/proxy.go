package config

import (
	"fmt"
	"net"
	"strings"
)

// ProxyRanges parses TrustedProxies, a comma separated list of CIDRs or bare
// IPs.  An empty list means no proxy is trusted and the peer address is the
// client.
func (c Config) ProxyRanges() ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid proxy address %q", p)
			}
			bits := 128
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy range %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
