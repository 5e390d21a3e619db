// Package ingest serves the frame intake endpoint. Pre-extracted keypoint
// vectors are applied to the session window synchronously in array order; raw
// frames are queued for extraction and acknowledged immediately.
package ingest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/logging"
	"github.com/gestureconnect/signd/internal/recognizer"
	"github.com/gestureconnect/signd/internal/registry"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	SessionID string `json:"session"`
	Data      []struct {
		Vector    []float64 `json:"vector,omitempty"`
		Frame     string    `json:"frame,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"data"`
}

type response struct {
	Status       string `json:"status"`
	BufferLength int    `json:"buffer_length"`
	Queued       int    `json:"queued,omitempty"`
}

func NewHandler(cfg *Config, reg registry.Ingester) (http.Handler, error) {
	return &handler{
		cfg: cfg,
		reg: reg,
	}, nil
}

type handler struct {
	reg registry.Ingester
	cfg *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	// Items are applied in array order: that order is the arrival order the
	// session window must observe.
	var bufferLength, queued int
	for i, dat := range req.Data {
		switch {
		case len(dat.Vector) > 0:
			n, err := h.reg.Ingest(req.SessionID, dat.Vector)
			if err != nil {
				if errors.Is(err, recognizer.ErrDimensionMismatch) {
					httputil.RespBadRequest(ctx, w, `{"error": "item %d: %v"}`, i, err)
					return
				}
				httputil.RespInternalError(ctx, w, `{"error": "item %d: %v"}`, i, err)
				return
			}
			bufferLength = n
		case dat.Frame != "":
			image, err := base64.StdEncoding.DecodeString(dat.Frame)
			if err != nil {
				httputil.RespBadRequest(ctx, w, `{"error": "item %d: frame is not valid base64"}`, i)
				return
			}
			if err := h.reg.IngestFrame(req.SessionID, image); err != nil {
				httputil.RespBadRequest(ctx, w, `{"error": "item %d: %v"}`, i, err)
				return
			}
			queued++
		default:
			httputil.RespBadRequest(ctx, w, `{"error": "item %d: either vector or frame is required"}`, i)
			return
		}
	}

	logger.Debugf("ingested %d items for session %s", len(req.Data), req.SessionID)

	resp := response{Status: "ok", BufferLength: bufferLength, Queued: queued}
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
