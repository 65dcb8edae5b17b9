package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenwatch-service/internal/domain/entity"
	"screenwatch-service/internal/interface/ai"
	"screenwatch-service/internal/usecase"
	"screenwatch-service/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (n nopLogger) With(keysAndValues ...interface{}) logger.Logger {
	return n
}

type stubCinemaRepo struct {
	cinema *entity.Cinema
}

func (r *stubCinemaRepo) GetBySlug(ctx context.Context, slug string) (*entity.Cinema, error) {
	if r.cinema != nil && r.cinema.Slug == slug {
		return r.cinema, nil
	}
	return nil, errors.New("not found")
}

func (r *stubCinemaRepo) GetByID(ctx context.Context, id uint) (*entity.Cinema, error) {
	if r.cinema != nil && r.cinema.ID == id {
		return r.cinema, nil
	}
	return nil, errors.New("not found")
}

func (r *stubCinemaRepo) FindActive(ctx context.Context) ([]*entity.Cinema, error) {
	if r.cinema == nil {
		return nil, nil
	}
	return []*entity.Cinema{r.cinema}, nil
}

type stubRunRepo struct {
	latest *entity.ScraperRun
}

func (r *stubRunRepo) Append(ctx context.Context, run *entity.ScraperRun) error { return nil }

func (r *stubRunRepo) FindLatestByCinema(ctx context.Context, cinemaID uint) (*entity.ScraperRun, error) {
	if r.latest == nil {
		return nil, errors.New("no runs")
	}
	return r.latest, nil
}

func (r *stubRunRepo) FindByCinemaAround(ctx context.Context, cinemaID uint, day time.Time) (*entity.ScraperRun, error) {
	return nil, nil
}

func (r *stubRunRepo) FindByCinemaSince(ctx context.Context, cinemaID uint, since time.Time) ([]*entity.ScraperRun, error) {
	return nil, nil
}

func (r *stubRunRepo) UpdateResolution(ctx context.Context, runID string, resolution entity.Resolution) error {
	return nil
}

type stubBaselineRepo struct{}

func (stubBaselineRepo) GetByCinema(ctx context.Context, cinemaID uint) (*entity.CinemaBaseline, error) {
	return nil, errors.New("no baseline")
}
func (stubBaselineRepo) Save(ctx context.Context, baseline *entity.CinemaBaseline) error { return nil }

type stubClassifier struct {
	verdict ai.Verdict
	err     error
}

func (s *stubClassifier) Classify(ctx context.Context, prompt string) (ai.Verdict, error) {
	if s.err != nil {
		return ai.Verdict{}, s.err
	}
	return s.verdict, nil
}

func newTestHandler(cinemas *stubCinemaRepo, runs *stubRunRepo, cheap, strong ai.Classifier) *Handler {
	cfg := usecase.DetectorConfig{
		TopTierDropPct:      30,
		StandardTierDropPct: 50,
		HighCountCeilingPct: 100,
		HealthCheckBudget:   30 * time.Second,
	}
	detector := usecase.NewAnomalyDetector(cinemas, runs, stubBaselineRepo{}, cfg, nopLogger{})
	verifier := ai.NewEscalatingVerifier(cheap, strong, 0.7, nil, nopLogger{})
	tracker := usecase.NewBaselineTracker(cinemas, runs, stubBaselineRepo{}, 28*24*time.Hour, nopLogger{})

	return NewHandler(detector, verifier, tracker, nil, cinemas, runs, nopLogger{})
}

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func TestHealthCheckEndpoint(t *testing.T) {
	cinemas := &stubCinemaRepo{cinema: &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}}
	runs := &stubRunRepo{latest: &entity.ScraperRun{
		RunID: "r1", CinemaID: 1, Status: entity.RunStatusSuccess,
		ScreeningCount: 12, StartedAt: time.Now(),
	}}
	mux := newTestMux(newTestHandler(cinemas, runs, &stubClassifier{}, &stubClassifier{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health-check", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Total   int `json:"Total"`
			Healthy int `json:"Healthy"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Healthy)
}

func TestCinemaCheckEndpointUnknownCinema(t *testing.T) {
	mux := newTestMux(newTestHandler(&stubCinemaRepo{}, &stubRunRepo{}, &stubClassifier{}, &stubClassifier{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cinemas/nowhere/check", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown_cinema", resp.Error.Code)
}

func TestVerifyEndpointReturnsDiagnosis(t *testing.T) {
	cinemas := &stubCinemaRepo{cinema: &entity.Cinema{ID: 1, Slug: "prince-charles", Name: "Prince Charles Cinema", Active: true}}
	cheap := &stubClassifier{verdict: ai.Verdict{Analysis: "holiday closure", Confidence: 0.9}}
	mux := newTestMux(newTestHandler(cinemas, &stubRunRepo{}, cheap, &stubClassifier{}))

	body := strings.NewReader(`{"cinemaSlug": "prince-charles", "anomalyType": "low_count", "todayCount": 3, "lastWeekCount": 18}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/verify", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Analysis string  `json:"Analysis"`
			Model    string  `json:"Model"`
			Conf     float64 `json:"Confidence"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "holiday closure", resp.Data.Analysis)
	assert.Equal(t, ai.ModelCheap, resp.Data.Model)
	assert.InDelta(t, 0.9, resp.Data.Conf, 0.001)
}

func TestVerifyEndpointSurfacesVerifierFailure(t *testing.T) {
	cinemas := &stubCinemaRepo{cinema: &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}}
	cheap := &stubClassifier{err: errors.New("quota exceeded")}
	mux := newTestMux(newTestHandler(cinemas, &stubRunRepo{}, cheap, &stubClassifier{}))

	body := strings.NewReader(`{"cinemaSlug": "prince-charles", "anomalyType": "zero_results"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/verify", body))

	// verifier failure is a gateway error, never a diagnosis
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "verifier_unavailable", resp.Error.Code)
}

func TestVerifyEndpointRejectsBadJSON(t *testing.T) {
	mux := newTestMux(newTestHandler(&stubCinemaRepo{}, &stubRunRepo{}, &stubClassifier{}, &stubClassifier{}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/verify", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolutionEndpointUpdatesFlags(t *testing.T) {
	runs := &stubRunRepo{}
	mux := newTestMux(newTestHandler(&stubCinemaRepo{}, runs, &stubClassifier{}, &stubClassifier{}))

	body := strings.NewReader(`{"autoRetried": true, "fixedByAi": true}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/runs/run-123/resolution", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			AutoRetried bool `json:"AutoRetried"`
			FixedByAI   bool `json:"FixedByAI"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Data.AutoRetried)
	assert.True(t, resp.Data.FixedByAI)
}

func TestSetBaselineEndpointPins(t *testing.T) {
	cinemas := &stubCinemaRepo{cinema: &entity.Cinema{ID: 1, Slug: "prince-charles", Active: true}}
	mux := newTestMux(newTestHandler(cinemas, &stubRunRepo{}, &stubClassifier{}, &stubClassifier{}))

	body := strings.NewReader(`{"weekdayAvg": 12, "weekendAvg": 20, "tolerancePct": 15}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/cinemas/prince-charles/baseline", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			WeekdayAvg     float64 `json:"WeekdayAvg"`
			ManualOverride bool    `json:"ManualOverride"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 12.0, resp.Data.WeekdayAvg, 0.001)
	assert.True(t, resp.Data.ManualOverride)
}
