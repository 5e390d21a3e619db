package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	historyModel "github.com/gestureconnect/signd/internal/history/model"
	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/recognizer"
	"github.com/gestureconnect/signd/internal/registry"
)

// Transcript exposes the recent emission history of a session.
type Transcript interface {
	Recent(sessionID string, n int) ([]historyModel.Record, error)
}

type statusResponse struct {
	recognizer.Status
	Transcript []historyModel.Record `json:"transcript,omitempty"`
}

// NewStatusHandler reports a session's observable state together with its
// recent transcript. transcript may be nil.
func NewStatusHandler(cfg *Config, reg registry.Predictor, transcript Transcript) (http.Handler, error) {
	return &statusHandler{
		cfg:        cfg,
		reg:        reg,
		transcript: transcript,
	}, nil
}

type statusHandler struct {
	reg        registry.Predictor
	transcript Transcript
	cfg        *Config
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "session is required"}`)
		return
	}

	resp := statusResponse{Status: h.reg.Status(sessionID)}
	if h.transcript != nil {
		records, err := h.transcript.Recent(sessionID, h.cfg.TranscriptLen)
		if err != nil {
			logger.Errorf("unable fetch transcript for session %s: %v", sessionID, err)
		} else {
			resp.Transcript = records
		}
	}

	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
