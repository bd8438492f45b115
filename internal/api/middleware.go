package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"medeasy/pos/internal/logger"
)

type requestState struct {
	tenantID int64
}

type stateKey struct{}

// requestLogger attaches a request-scoped zap logger to the context and logs
// one line per request once the handler returns.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		state := &requestState{}

		reqLog := h.log.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		ctx := logger.WithContext(r.Context(), reqLog)
		ctx = context.WithValue(ctx, stateKey{}, state)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
		}
		if state.tenantID != 0 {
			fields = append(fields, zap.Int64("tenant_id", state.tenantID))
		}
		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Error("request", fields...)
		case status >= http.StatusBadRequest:
			reqLog.Warn("request", fields...)
		default:
			reqLog.Info("request", fields...)
		}
	})
}

// recoverer turns a panic into a logged 500.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContextOr(r.Context(), h.log).Error("panic recovered",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}
