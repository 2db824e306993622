//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/config"
	"github.com/sells-group/valuation-cli/internal/industry"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

var testServerConfig = config.ServerConfig{CORSOrigins: []string{"*"}}

const previewBody = `{
	"industryCode": "541512",
	"financials": {"revenue": "$1,000,000", "costOfGoodsSold": 400000, "operatingExpenses": "350,000"},
	"adjustments": {"ownerSalary": 100000}
}`

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_Preview(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", previewBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res valuation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 250_000.0, res.EBITDA)
	assert.Equal(t, 350_000.0, res.AdjustedEBITDA)
	assert.Equal(t, 0.0, res.OverallScore)
	assert.InDelta(t, 4.8, res.Multiplier, 1e-9)
	assert.InDelta(t, 1_400_000, res.Valuation.Low, 1e-6)
	assert.InDelta(t, 1_680_000, res.Valuation.Mean, 1e-6)
	assert.InDelta(t, 2_800_000, res.Valuation.High, 1e-6)
	assert.Equal(t, valuation.GradeF, res.Grade)
	assert.NotEmpty(t, res.Recommendations)
}

func TestBuildMux_Preview_MalformedNumbersAreZero(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview",
		`{"industryCode": 999999, "financials": {"revenue": "abc", "costOfGoodsSold": null}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res valuation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 0.0, res.EBITDA)
	assert.Equal(t, industry.DefaultMultiplier, res.Industry)
	assert.Equal(t, valuation.Range{}, res.Valuation)
}

func TestBuildMux_Preview_WithAnswers(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	body := `{"industryCode": "54", "financials": {"revenue": 500000},
		"answers": {"financial_performance_1": 4, "financial_performance_2": 3}}`
	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res valuation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 4.0, res.CategoryScores[valuation.CategoryFinancialPerformance])
	assert.InDelta(t, 8.0/20, res.ScorePercentage, 1e-9)
}

func TestBuildMux_Preview_InvalidJSON(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", "not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildMux_Preview_UnknownAnswer(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", `{"answers": {"nope": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown question")
}

func TestBuildMux_AssessmentLifecycle(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	body := strings.Replace(previewBody, "{", `{"company": "Acme Corp",`, 1)
	rr := do(t, mux, http.MethodPost, "/v1/assessments", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created model.Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Acme Corp", created.Company)
	assert.Equal(t, model.SourceAPI, created.Source)
	assert.Equal(t, 350_000.0, created.Result.AdjustedEBITDA)

	rr = do(t, mux, http.MethodGet, "/v1/assessments/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "541512", got.IndustryCode())

	rr = do(t, mux, http.MethodGet, "/v1/assessments?industry=541512&limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.Assessment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rr = do(t, mux, http.MethodGet, "/v1/assessments?company=nobody", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = do(t, mux, http.MethodDelete, "/v1/assessments/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, mux, http.MethodGet, "/v1/assessments/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, mux, http.MethodDelete, "/v1/assessments/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildMux_Industries(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodGet, "/v1/industries/541512", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var m industry.Match
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, industry.ResolutionExact, m.Resolution)
	assert.Equal(t, 5.8, m.Avg)

	rr = do(t, mux, http.MethodGet, "/v1/industries/999999", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, industry.ResolutionDefault, m.Resolution)
	assert.Equal(t, industry.DefaultMultiplier, m.Multiplier)

	rr = do(t, mux, http.MethodGet, "/v1/industries", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []industry.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.NotEmpty(t, entries)
	assert.Len(t, entries[0].Code, 2, "sectors first")
}

func TestBuildMux_Questions(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	rr := do(t, mux, http.MethodGet, "/v1/questions", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var qs []struct {
		ID      string                 `json:"id"`
		Options []questionnaire.Option `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &qs))
	require.Len(t, qs, 2*len(valuation.Categories))
	require.Len(t, qs[0].Options, 5)
	assert.Equal(t, 5, qs[0].Options[4].Weight)
	assert.Equal(t, 3, qs[0].Options[3].Weight)
}

func TestBuildMux_RateLimit(t *testing.T) {
	sc := testServerConfig
	sc.RateLimit = config.RateLimit{RPS: 0.001, Burst: 1}
	mux := buildMux(newTestEnv(t), sc)

	rr := do(t, mux, http.MethodGet, "/v1/questions", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, mux, http.MethodGet, "/v1/questions", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	// Health is outside the limited group.
	rr = do(t, mux, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBuildMux_CORSPreflight(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	req := httptest.NewRequest(http.MethodOptions, "/v1/valuations/preview", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildMux_Metrics(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)

	do(t, mux, http.MethodGet, "/health", "")
	rr := do(t, mux, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}

func TestBuildMux_Preview_HugeRevenue(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)
	body := `{"industryCode": "511210", "financials": {"revenue": "1e308"}}`

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res valuation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 1e308, res.AdjustedEBITDA)
	assert.Equal(t, valuation.Range{}, res.Valuation)

	rr = do(t, mux, http.MethodPost, "/v1/assessments", body)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
}

func TestBuildMux_Preview_AnswerOverridesResponse(t *testing.T) {
	mux := buildMux(newTestEnv(t), testServerConfig)
	body := `{"responses": [{"questionId": "financial_performance_1", "valueDriverCategory": "Financial Performance", "weight": 5}],
		"answers": {"financial_performance_1": 0}}`

	rr := do(t, mux, http.MethodPost, "/v1/valuations/preview", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res valuation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 0.0, res.CategoryScores[valuation.CategoryFinancialPerformance])
	assert.Equal(t, 0.0, res.ScorePercentage)
}
