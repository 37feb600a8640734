package admission

import (
	"net"
	"net/http"
	"strings"

	"admission-gateway/middleware/admission/domain"
)

type KeyFunc func(r *http.Request) domain.ClientID

// DefaultKeyFunc deriva o id do cliente de forma determinística a partir da request.
// Ordem: header configurado, primeiro hop do X-Forwarded-For (se confiável),
// host do RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.ClientID {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.ClientID(v)
			}
		}

		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return domain.ClientID(ip)
				}
			}
		}

		return domain.ClientID(remoteHost(r.RemoteAddr))
	}
}

func remoteHost(addr string) string {
	addr = strings.TrimSpace(addr)
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}
