// internal/server/handler.go
//
// Discovery and report handlers.
//
// A report request flows:
//
//	parse params → pick extension (406 if undeclared) → render into a buffer
//	  → write response → backup copy → metrics + audit row
//
// Nothing reaches the client until the render has fully succeeded.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/audit"
	"github.com/yanizio/kapenta/internal/auth"
	"github.com/yanizio/kapenta/internal/metrics"
	"github.com/yanizio/kapenta/internal/render"
	"github.com/yanizio/kapenta/internal/report"
	"github.com/yanizio/kapenta/internal/requestinfo"
	"github.com/yanizio/kapenta/internal/routing"
)

const auditTimeout = 2 * time.Second

// handleDiscovery serves GET <apiRoot>/reports.json.
func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.reg.Listing()); err != nil {
		zap.L().Error("discovery encode failed", zap.Error(err))
	}
}

// reportHandler binds one resource to the render engine.
func (s *Server) reportHandler(res report.Resource, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ext := res.PrimaryExtension()
		status, size := http.StatusOK, 0

		defer func() {
			s.observe(r, res, route, ext, status, size, time.Since(start))
		}()

		if err := r.ParseForm(); err != nil {
			status = http.StatusBadRequest
			http.Error(w, http.StatusText(status), status)
			return
		}

		selected, err := render.SelectExtension(res, r.Form.Get(render.FormatParam))
		if err != nil {
			ext = truncate(r.Form.Get(render.FormatParam), 32)
			status = http.StatusNotAcceptable
			zap.L().Info("report extension rejected", zap.String("report", res.Name), zap.Error(err))
			http.Error(w, http.StatusText(status), status)
			return
		}
		ext = selected

		user, _ := auth.User(r.Context())
		var buf bytes.Buffer
		ct, err := s.eng.Render(r.Context(), render.Request{
			Resource:  res,
			Extension: ext,
			Params:    r.Form,
			User:      user,
			Info:      requestinfo.FromContext(r.Context()),
		}, &buf)
		if err != nil {
			status = http.StatusInternalServerError
			if errors.Is(err, context.Canceled) {
				// Client went away; nobody is listening for a body.
				status = 499
				return
			}
			zap.L().Error("report render failed",
				zap.String("report", res.Name),
				zap.String("extension", ext),
				zap.String("template", res.Template),
				zap.Error(err))
			http.Error(w, http.StatusText(status), status)
			return
		}

		h := w.Header()
		h.Set("Content-Type", ct)
		h.Set("Content-Length", strconv.Itoa(buf.Len()))
		if ext != "html" && ext != "htm" {
			h.Set("Content-Disposition",
				fmt.Sprintf("inline; filename=%q", routing.RouteSegment(res.Name)+"."+ext))
		}
		w.WriteHeader(status)
		size, _ = w.Write(buf.Bytes())

		if s.backup != nil {
			if file, err := s.backup.Write(res.Name, ext, buf.Bytes()); err != nil {
				zap.L().Warn("report backup failed", zap.String("report", res.Name), zap.Error(err))
			} else {
				zap.L().Debug("report backed up", zap.String("file", file))
			}
		}
	}
}

// observe feeds metrics and the audit log for one report request.
func (s *Server) observe(r *http.Request, res report.Resource, route, ext string, status, size int, d time.Duration) {
	label := ext
	if status == http.StatusNotAcceptable {
		label = "unsupported"
	}
	metrics.RendersTotal.WithLabelValues(res.Name, label, strconv.Itoa(status)).Inc()
	if status == http.StatusOK {
		metrics.RenderDuration.WithLabelValues(res.Name).Observe(d.Seconds())
	}

	user, _ := auth.User(r.Context())
	entry := audit.Entry{
		Report:     res.Name,
		Path:       route,
		Method:     r.Method,
		Extension:  ext,
		Status:     status,
		Username:   user,
		UserAgent:  r.UserAgent(),
		RequestID:  chimw.GetReqID(r.Context()),
		Bytes:      size,
		DurationMS: d.Milliseconds(),
		RenderedAt: time.Now().UTC(),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil && info.Geo.IP != nil {
		entry.ClientIP = info.Geo.IP.String()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), auditTimeout)
	defer cancel()
	if err := s.audit.Record(ctx, entry); err != nil {
		zap.L().Warn("audit record failed", zap.String("report", res.Name), zap.Error(err))
	}
}

// truncate keeps at most n runes; invalid UTF-8 is replaced so the value
// always fits a utf8mb4 column.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
