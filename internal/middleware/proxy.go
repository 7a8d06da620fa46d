package middleware

import (
	"log/slog"
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures Echo to read the client IP from X-Forwarded-For
// only when the direct peer falls inside one of trustedCIDRs. Without this,
// c.RealIP() returns the proxy address and every client shares one rate
// limit bucket.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	var opts []echo.TrustOption
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR",
				slog.String("cidr", cidr),
				slog.Any("error", err),
			)
			continue
		}
		opts = append(opts, echo.TrustIPRange(network))
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
}
