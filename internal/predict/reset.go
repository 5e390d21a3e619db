package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/registry"
)

// NewResetHandler clears a session's window and stabilizer state. Resetting
// an unknown session is not an error.
func NewResetHandler(cfg *Config, reg registry.Predictor) (http.Handler, error) {
	return &resetHandler{
		cfg: cfg,
		reg: reg,
	}, nil
}

type resetHandler struct {
	reg registry.Predictor
	cfg *Config
}

func (h *resetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if req.SessionID == "" {
		httputil.RespBadRequest(ctx, w, `{"error": "session is required"}`)
		return
	}

	h.reg.Reset(req.SessionID)
	logger.Debugf("reset session %s", req.SessionID)
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}
