package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	apierrors "yeogiro/internal/errors"
	"yeogiro/internal/middleware"
	"yeogiro/internal/services"
	"yeogiro/internal/shared/testutil"
	"yeogiro/internal/store"
	"yeogiro/pkg/contracts"
	api "yeogiro/pkg/contracts/api/v1"
	"yeogiro/pkg/contracts/domain"
)

var cityHall = domain.Point{Lat: 37.5663, Lng: 126.9779}

type deps struct {
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
}

func newDeps(t *testing.T) deps {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return deps{validator: middleware.NewValidator(), errors: apierrors.NewErrorHandler(logger)}
}

func newRouter(t *testing.T, groups ...RouteGroup) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	require.NoError(t, RegisterRoutes(r, groups...))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apierrors.Envelope {
	t.Helper()
	var env apierrors.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeList[T any](t *testing.T, rec *httptest.ResponseRecorder) api.ListResponse[T] {
	t.Helper()
	var list api.ListResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list), rec.Body.String())
	return list
}

type fakeShelters struct {
	shelters map[string]domain.Shelter
	err      error

	gotPoint domain.Point
	gotLimit int
}

func (f *fakeShelters) Shelter(_ context.Context, id string) (domain.Shelter, error) {
	if f.err != nil {
		return domain.Shelter{}, f.err
	}
	s, ok := f.shelters[id]
	if !ok {
		return domain.Shelter{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeShelters) NearestShelters(_ context.Context, p domain.Point, limit int) ([]domain.ShelterDistance, error) {
	f.gotPoint, f.gotLimit = p, limit
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.ShelterDistance
	for _, s := range f.shelters {
		out = append(out, domain.ShelterDistance{Shelter: s, DistanceMetres: domain.DistanceMetres(p, s.Location)})
	}
	return out, nil
}

type fakePaths struct {
	saved   []domain.Path
	found   domain.Path
	findErr error

	gotTolerance float64
}

func (f *fakePaths) SavePath(_ context.Context, p domain.Path) (domain.Path, error) {
	p.ID = "p-1"
	f.saved = append(f.saved, p)
	return p, nil
}

func (f *fakePaths) Path(_ context.Context, id string) (domain.Path, error) {
	for _, p := range f.saved {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Path{}, store.ErrNotFound
}

func (f *fakePaths) FindPath(_ context.Context, _, _ domain.Point, tol float64) (domain.Path, error) {
	f.gotTolerance = tol
	return f.found, f.findErr
}

type fakeFacilities struct {
	facilities []domain.Facility

	gotCategory string
	gotRadius   float64
	gotLimit    int
}

func (f *fakeFacilities) Facilities(_ context.Context, category string) ([]domain.Facility, error) {
	f.gotCategory = category
	var out []domain.Facility
	for _, fc := range f.facilities {
		if category == "" || fc.Category == category {
			out = append(out, fc)
		}
	}
	return out, nil
}

func (f *fakeFacilities) Facility(_ context.Context, id string) (domain.Facility, error) {
	for _, fc := range f.facilities {
		if fc.ID == id {
			return fc, nil
		}
	}
	return domain.Facility{}, store.ErrNotFound
}

func (f *fakeFacilities) NearbyFacilities(_ context.Context, p domain.Point, category string, radius float64, limit int) ([]domain.FacilityDistance, error) {
	f.gotCategory, f.gotRadius, f.gotLimit = category, radius, limit
	var out []domain.FacilityDistance
	for _, fc := range f.facilities {
		out = append(out, domain.FacilityDistance{Facility: fc, DistanceMetres: domain.DistanceMetres(p, fc.Location)})
	}
	return out, nil
}

type fakeTips struct {
	tips []domain.Tip
	err  error
}

func (f *fakeTips) Tips(context.Context, string) ([]domain.Tip, error) { return f.tips, f.err }

func (f *fakeTips) Tip(_ context.Context, id string) (domain.Tip, error) {
	if f.err != nil {
		return domain.Tip{}, f.err
	}
	for _, tip := range f.tips {
		if tip.ID == id {
			return tip, nil
		}
	}
	return domain.Tip{}, store.ErrNotFound
}

type fakeMessages struct {
	published []api.PostMessageRequest
	recent    []domain.Message
	err       error

	gotRegion string
	gotLimit  int
}

func (f *fakeMessages) Publish(_ context.Context, req api.PostMessageRequest) (domain.Message, error) {
	if f.err != nil {
		return domain.Message{}, f.err
	}
	f.published = append(f.published, req)
	return domain.Message{ID: "m-1", Region: req.Region, Title: req.Title, Body: req.Body, Severity: domain.SeverityInfo}, nil
}

func (f *fakeMessages) Recent(_ context.Context, region string, limit int) ([]domain.Message, error) {
	f.gotRegion, f.gotLimit = region, limit
	return f.recent, f.err
}

type fakeSubscriber struct {
	called bool
	err    error
}

func (f *fakeSubscriber) Subscribe(w http.ResponseWriter, _ *http.Request) error {
	f.called = true
	if f.err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return f.err
	}
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

type fakeHealth struct {
	ready bool
}

func (f fakeHealth) HealthCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "ok", Version: "test"}
}

func (f fakeHealth) ReadinessCheck(context.Context) (services.ReadinessStatus, bool) {
	if !f.ready {
		return services.ReadinessStatus{Status: "not_ready"}, false
	}
	return services.ReadinessStatus{Status: "ready"}, true
}

func (f fakeHealth) Version() contracts.VersionInfo { return contracts.GetVersionInfo() }
