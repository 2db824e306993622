package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/valuation-cli/internal/metrics"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/store"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// maxBodyBytes bounds request bodies on the valuation endpoints.
const maxBodyBytes = 1 << 20

type api struct {
	env *appEnv
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if a.env.Store != nil {
		if err := a.env.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeRequest reads a valuationRequest. Only undecodable JSON is
// rejected; malformed amounts are coerced to zero downstream.
func (a *api) decodeRequest(w http.ResponseWriter, r *http.Request) (valuationRequest, valuation.Input, bool) {
	var req valuationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, valuation.Input{}, false
	}
	in, err := req.toInput(a.env.Questions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, valuation.Input{}, false
	}
	return req, in, true
}

func (a *api) preview(w http.ResponseWriter, r *http.Request) {
	_, in, ok := a.decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := a.env.Service.Value(r.Context(), "preview", in)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) createAssessment(w http.ResponseWriter, r *http.Request) {
	req, in, ok := a.decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := a.env.Service.Value(r.Context(), string(model.SourceAPI), in)
	if err != nil {
		serverError(w, r, err)
		return
	}
	rec := model.NewAssessment(req.Company, model.SourceAPI, in, *res)
	if err := a.env.Store.CreateAssessment(r.Context(), &rec); err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *api) listAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AssessmentFilter{
		Company:      q.Get("company"),
		IndustryCode: q.Get("industry"),
		Grade:        valuation.Grade(q.Get("grade")),
		Source:       model.Source(q.Get("source")),
		Limit:        cast.ToInt(q.Get("limit")),
		Offset:       cast.ToInt(q.Get("offset")),
	}
	list, err := a.env.Store.ListAssessments(r.Context(), filter)
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) getAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := a.env.Store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	err := a.env.Store.DeleteAssessment(r.Context(), chi.URLParam(r, "id"))
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listIndustries(w http.ResponseWriter, r *http.Request) {
	entries, err := a.env.ListIndustries(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) lookupIndustry(w http.ResponseWriter, r *http.Request) {
	m, err := a.env.Service.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type questionView struct {
	questionnaire.Question
	Options []questionnaire.Option `json:"options"`
}

func (a *api) listQuestions(w http.ResponseWriter, _ *http.Request) {
	qs := a.env.Questions.Questions()
	out := make([]questionView, len(qs))
	for i, q := range qs {
		out[i] = questionView{Question: q, Options: q.WeightedOptions()}
	}
	writeJSON(w, http.StatusOK, out)
}

// -- middleware --

// rateLimit rejects requests over the shared limit with 429.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// observe logs each request and counts it by route pattern and status.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// -- responses --

// writeJSON encodes v before committing status so an unencodable value
// becomes a 500 instead of an empty response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("encode response", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		data = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
