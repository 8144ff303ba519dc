package ws

import (
	"net/http"
	"net/url"

	"github.com/vedran77/projectdesk/internal/auth"
	"github.com/vedran77/projectdesk/internal/domain"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// ServeWS upgrades admin dashboards to a project event stream.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, issuer *auth.Issuer, allowedOrigins []string, log *zap.Logger) http.HandlerFunc {
	patterns := originPatterns(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := issuer.Verify(tokenStr)
		if err != nil {
			log.Info("ws: token rejected", zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != domain.RoleAdmin {
			http.Error(w, "Forbidden resource", http.StatusForbidden)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: patterns})
		if err != nil {
			log.Warn("ws: accept error", zap.Error(err))
			return
		}

		ctx := r.Context()
		client := NewClient(hub, conn, claims.UserID)
		select {
		case hub.register <- client:
		case <-hub.stopped:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "")
			return
		}

		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}

// originPatterns turns configured CORS origins into the host patterns
// websocket.Accept matches against.
func originPatterns(origins []string) []string {
	var patterns []string
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
