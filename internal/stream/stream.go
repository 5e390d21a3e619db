// Package stream serves the continuous recognition websocket. Each
// connection owns one recognition session: every accepted frame triggers an
// inference tick and the result is written back on the same connection.
package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/registry"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type clientMessage struct {
	Type   string    `json:"type"`
	Vector []float64 `json:"vector,omitempty"`
	Frame  string    `json:"frame,omitempty"`
}

type errorMessage struct {
	Error string `json:"error"`
}

func NewHandler(cfg *Config, reg registry.Manager) (http.Handler, error) {
	return &handler{
		cfg: cfg,
		reg: reg,
	}, nil
}

type handler struct {
	reg registry.Manager
	cfg *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	// A connection may resume an existing session by passing its id;
	// otherwise a fresh one is created.
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	logger.Infof("stream opened for session %s", sessionID)
	defer logger.Infof("stream closed for session %s", sessionID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.writeError(conn, fmt.Sprintf("malformed message: %v", err))
			continue
		}
		switch msg.Type {
		case "frame":
			if err := h.frame(ctx, conn, sessionID, msg); err != nil {
				h.writeError(conn, err.Error())
			}
		case "reset":
			h.reg.Reset(sessionID)
			if err := conn.WriteJSON(map[string]string{"status": "ok"}); err != nil {
				return
			}
		default:
			h.writeError(conn, fmt.Sprintf("unknown message type %q", msg.Type))
		}
	}
}

// frame applies one frame and writes the resulting inference tick back.
func (h *handler) frame(ctx context.Context, conn *websocket.Conn, sessionID string, msg clientMessage) error {
	switch {
	case len(msg.Vector) > 0:
		if _, err := h.reg.Ingest(sessionID, msg.Vector); err != nil {
			return err
		}
	case msg.Frame != "":
		image, err := base64.StdEncoding.DecodeString(msg.Frame)
		if err != nil {
			return fmt.Errorf("frame is not valid base64")
		}
		if err := h.reg.IngestFrame(sessionID, image); err != nil {
			return err
		}
	default:
		return fmt.Errorf("either vector or frame is required")
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.PredictTimeout)
	defer cancel()
	result := h.reg.Predict(ctx, sessionID)
	return conn.WriteJSON(result)
}

func (h *handler) writeError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(errorMessage{Error: msg})
}
