package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
)

// ClientInfoFromRequest collects the caller's address and user agent
// attributes. Empty and false values are kept here; the analytics logger
// decides what gets stored.
func ClientInfoFromRequest(r *http.Request, trustProxy bool) domain.ClientInfo {
	ua := useragent.New(r.UserAgent())
	browser, version := ua.Browser()
	engine, engineVersion := ua.Engine()

	return domain.ClientInfo{
		IP: clientIP(r, trustProxy),
		Attributes: map[string]any{
			"browser":       browser,
			"version":       version,
			"os":            ua.OS(),
			"platform":      ua.Platform(),
			"engine":        engine,
			"engineVersion": engineVersion,
			"isMobile":      ua.Mobile(),
			"isBot":         ua.Bot(),
			"source":        r.UserAgent(),
			"referrer":      r.Referer(),
		},
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
