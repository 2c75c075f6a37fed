package api

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/subscription-intake/internal/pkg/httputil"
	"github.com/ignite/subscription-intake/internal/pkg/logger"
)

// recoverJSON turns a handler panic into the generic JSON 500.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("handler panic",
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			httputil.Error(w, http.StatusInternalServerError, httputil.MsgInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.MethodNotAllowed(w)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	httputil.Error(w, http.StatusNotFound, "Not found")
}
