package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// NewIPExtractor returns the extractor echo uses for c.RealIP(), which keys rate limiting.
// Without trusted proxies the connection address is the client and forwarding headers are ignored.
// With trusted proxies, X-Forwarded-For is walked from the right and the first untrusted hop wins.
func NewIPExtractor(trustedProxies []*net.IPNet) echo.IPExtractor {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect()
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, ipRange := range trustedProxies {
		options = append(options, echo.TrustIPRange(ipRange))
	}
	return echo.ExtractIPFromXFFHeader(options...)
}
