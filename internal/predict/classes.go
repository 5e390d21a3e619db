package predict

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gestureconnect/signd/internal/httputil"
	"github.com/gestureconnect/signd/internal/logging"
)

type classesResponse struct {
	Classes []string `json:"classes"`
}

// NewClassesHandler reports the ordered label set of the deployed model.
func NewClassesHandler(classes []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
			_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
			return
		}
		bytes, err := json.Marshal(classesResponse{Classes: classes})
		if err != nil {
			httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%s", bytes)
	})
}
