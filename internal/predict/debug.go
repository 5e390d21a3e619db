package predict

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/gestureconnect/signd/internal/registry"
)

// NewDebugHandler dumps every live session's state in spew format. Served on
// the debug listener only.
func NewDebugHandler(reg registry.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(spew.Sdump(reg.Sessions())))
	})
}
