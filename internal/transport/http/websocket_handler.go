package http

import (
	"log/slog"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"

	"arvaiapulse/internal/config"
	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/middleware"
	"arvaiapulse/internal/websocket"
)

// WebSocketHandler upgrades /ws requests and hands them to the hub
type WebSocketHandler struct {
	hub            *websocket.Hub
	cfg            config.WebSocketConfig
	allowedOrigins []string
	upgrader       gorillaws.Upgrader
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(
	hub *websocket.Hub,
	cfg config.WebSocketConfig,
	allowedOrigins []string,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeError(status, reason))
		},
	}
	return h
}

// checkOrigin allows requests without an Origin header and origins listed
// in the security configuration.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		return
	}

	client := websocket.ServeWS(h.hub, websocket.NewConnectionWrapper(conn), h.cfg, middleware.GetRequestID(r.Context()))
	h.logger.InfoContext(r.Context(), "websocket connection established",
		slog.String("client_id", client.ID()),
		slog.String("origin", r.Header.Get("Origin")))
}
