package httpapi

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ShutdownHandler struct {
	Token    string
	Shutdown func(ctx context.Context) error
	Log      *zap.Logger
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Handle answers first, then stops the server in the background.
func (h ShutdownHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !isLoopback(r.RemoteAddr) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "shutdown is local-only")
		return
	}
	got := r.Header.Get("X-Shutdown-Token")
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
		WriteError(w, r, http.StatusUnauthorized, "unauthorized", "bad shutdown token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "shutting down"})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Shutdown(ctx); err != nil {
			h.Log.Warn("shutdown", zap.Error(err))
		}
	}()
}
