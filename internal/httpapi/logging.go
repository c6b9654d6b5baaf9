package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, predict requests are not
// logged individually (transport metrics still capture them).
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// logPredict emits one structured line per finished predict request.
func logPredict(r *http.Request, status, batchSize int, dur time.Duration, err error) {
	if zlog == nil {
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Error().Err(err)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Str("path", r.URL.Path).
		Int("status", status).
		Int("batch_size", batchSize).
		Dur("dur", dur).
		Msg("predict")
}
