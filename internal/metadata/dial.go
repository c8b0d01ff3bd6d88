package metadata

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// cgnat is the carrier-grade NAT block, which netip does not flag as private.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// blockedAddr reports addresses a product page must never resolve to.
func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() ||
		cgnat.Contains(addr) ||
		(addr.Is4() && addr.As4()[0] == 0)
}

// guardedDial resolves the host itself and refuses to connect when any of
// its addresses is blocked, so a rebinding DNS answer cannot slip through
// between check and connect.
func guardedDial(timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}
		if len(addrs) == 0 {
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
		for _, a := range addrs {
			if blockedAddr(a) {
				return nil, fmt.Errorf("%w: %s", errPrivateAddress, a)
			}
		}

		return dialer.DialContext(ctx, network, net.JoinHostPort(addrs[0].Unmap().String(), port))
	}
}
