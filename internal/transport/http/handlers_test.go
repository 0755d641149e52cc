package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"arvaiapulse/internal/config"
	"arvaiapulse/internal/dataprocessing"
	"arvaiapulse/internal/dataset"
	apierrors "arvaiapulse/internal/errors"
	"arvaiapulse/internal/middleware"
	"arvaiapulse/internal/services"
	"arvaiapulse/internal/shared/testutil"
	"arvaiapulse/internal/websocket"
	"arvaiapulse/pkg/contracts/domain"
)

type mockInsights struct {
	mock.Mock
}

func (m *mockInsights) Summarize(ctx context.Context, sel domain.Selection) (string, error) {
	args := m.Called(ctx, sel)
	return args.String(0), args.Error(1)
}

type mockDatasetManager struct {
	mock.Mock
}

func (m *mockDatasetManager) Info() (domain.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *mockDatasetManager) Reload(ctx context.Context) (domain.DatasetInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *mockDatasetManager) Replace(ctx context.Context, raw, name string) (domain.DatasetInfo, error) {
	args := m.Called(ctx, raw, name)
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *mockDatasetManager) ReplaceXLSX(ctx context.Context, r io.Reader, sheet, name string) (domain.DatasetInfo, error) {
	args := m.Called(ctx, r, sheet, name)
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

type testServer struct {
	router   chi.Router
	data     *services.DatasetService
	insights *mockInsights
}

// newTestServer wires the handlers like the application does. The dataset
// is loaded from the sample sheet when loaded is true.
func newTestServer(t *testing.T, loaded bool) *testServer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	data := services.NewDatasetService(dataset.NewTextSource(testutil.SampleTSV, "sample"), dataprocessing.DefaultCalendar(), nil, logger)
	if loaded {
		_, err := data.Reload(context.Background())
		require.NoError(t, err)
	}
	dashboard := services.NewDashboardService(data, logger)
	insights := &mockInsights{}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidationMiddleware(logger, errorHandler)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/dashboard", NewDashboardHandler(dashboard, insights, validator, errorHandler, logger).Routes())
	r.Mount("/api/dataset", NewDatasetHandler(data, validator, errorHandler, 1<<20, logger).Routes())
	r.Mount("/api/export", NewExportHandler(services.NewExportService(dashboard, nil, logger), validator, errorHandler, logger).Routes())

	health := NewHealthHandler(services.NewHealthService("test", data, nil, logger), logger)
	r.Get("/api/health/ready", health.ReadinessCheck)
	r.Handle("/metrics", NewMetricsHandler(nil, errorHandler))

	return &testServer{router: r, data: data, insights: insights}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDashboard_View(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/dashboard?week=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view domain.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, domain.SelectWeek(3), view.Selection)
	assert.Len(t, view.Annual, domain.WeeksPerSeason)
	require.Len(t, view.Weekly, 2)
	assert.Equal(t, "cavolo nero", view.Weekly[0].Product)
	assert.Equal(t, []int{3}, view.Highlighted)

	info, err := s.data.Info()
	require.NoError(t, err)
	assert.Equal(t, `"`+info.Checksum+`"`, rec.Header().Get("ETag"))
}

func TestDashboard_NotModified(t *testing.T) {
	s := newTestServer(t, true)

	first := s.get(t, "/api/dashboard/products")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/products", nil)
	req.Header.Set("If-None-Match", etag)
	rec := s.do(t, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/products", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, s.do(t, req).Code)
}

func TestDashboard_QueryValidation(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name  string
		query string
	}{
		{"product and week together", "?product=patate&week=3"},
		{"negative week", "?week=-1"},
		{"non numeric week", "?week=tre"},
		{"product too long", "?product=" + strings.Repeat("a", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.get(t, "/api/dashboard"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, apierrors.TypeValidation, body["type"])
			assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		})
	}
}

func TestDashboard_WeekZeroIsASelection(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/dashboard/weekly?week=0")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["selection"].(map[string]interface{})["has_week"])
	assert.Equal(t, []interface{}{}, body["rows"])
}

func TestDashboard_WeeklyWithoutWeekIsEmpty(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/dashboard/weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":[]`)
}

func TestDashboard_ProductIsNormalised(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/dashboard/highlight?product=%20Cavolo%20Nero%20")
	require.Equal(t, http.StatusOK, rec.Code)

	var highlight services.Highlight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &highlight))
	assert.Equal(t, "cavolo nero", highlight.Selection.Product)
	assert.Equal(t, []int{2, 3}, highlight.Weeks)
	require.Len(t, highlight.Ranges, 1)
	assert.Equal(t, "S02", highlight.Ranges[0].FromLabel)
	assert.Equal(t, "S03", highlight.Ranges[0].ToLabel)
}

func TestDashboard_ProductsAndWeeks(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/dashboard/products")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":["cavolo nero","patate","porri"]}`, rec.Body.String())

	rec = s.get(t, "/api/dashboard/weeks")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Weeks []domain.WeekOption `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Weeks, 3)
	assert.Equal(t, "S02", body.Weeks[0].Label)
}

func TestDashboard_NotLoaded(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.get(t, "/api/dashboard/annual")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apierrors.TypeDatasetNotLoaded, decodeBody(t, rec)["type"])
}

func TestDashboard_Insights(t *testing.T) {
	s := newTestServer(t, true)
	s.insights.On("Summarize", mock.Anything, domain.SelectProduct("patate")).
		Return("Le patate dominano la settimana 4.", nil).Once()

	rec := s.get(t, "/api/dashboard/insights?product=Patate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"summary":"Le patate dominano la settimana 4."}`, rec.Body.String())
	s.insights.AssertExpectations(t)
}

func TestDashboard_InsightsNotLoaded(t *testing.T) {
	s := newTestServer(t, true)
	s.insights.On("Summarize", mock.Anything, domain.Selection{}).
		Return("", services.ErrDatasetNotLoaded).Once()

	rec := s.get(t, "/api/dashboard/insights")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExport_Download(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/export/csv?week=3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="arvaia-distribuzione-2025-S03.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeff"))
	assert.Contains(t, rec.Body.String(), "cavolo nero")

	rec = s.get(t, "/api/export/xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	// XLSX files are zip archives.
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestExport_InvalidFormat(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.get(t, "/api/export/pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataset_UploadText(t *testing.T) {
	s := newTestServer(t, false)

	upload := "Data\tProdotto\tPeso_kg\tSettimana\n10/02/2025\tZucca\t7,5\t7\n"
	req := httptest.NewRequest(http.MethodPost, "/api/dataset?name=febbraio.tsv", strings.NewReader(upload))
	req.Header.Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	rec := s.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 1, info.RecordCount)
	assert.Equal(t, dataset.KindText, info.Source)

	rec = s.get(t, "/api/dashboard/products")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":["zucca"]}`, rec.Body.String())
}

func TestDataset_UploadErrors(t *testing.T) {
	s := newTestServer(t, true)

	tests := []struct {
		name        string
		contentType string
		body        string
		query       string
		wantStatus  int
		wantCode    string
	}{
		{"header only", "text/plain", "Data\tProdotto\tPeso_kg\tSettimana\n", "", http.StatusBadRequest, "EMPTY_DATASET"},
		{"unsupported media type", "application/json", `{}`, "", http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"missing content type", "", "x", "", http.StatusBadRequest, "MISSING_CONTENT_TYPE"},
		{"invalid name", "text/plain", testutil.SampleTSV, "?name=..%2Fetc", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"corrupt workbook", ContentTypeXLSX, "not a zip", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"too large", "text/plain", strings.Repeat("x", 2<<20), "", http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/dataset"+tt.query, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := s.do(t, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["error_code"])
		})
	}

	// The served dataset is untouched by failed uploads.
	info, err := s.data.Info()
	require.NoError(t, err)
	assert.Equal(t, 5, info.RecordCount)
}

func TestDataset_ReloadAndInfo(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	manager := &mockDatasetManager{}
	handler := NewDatasetHandler(manager, middleware.NewValidationMiddleware(logger, errorHandler), errorHandler, 0, logger)

	r := chi.NewRouter()
	r.Mount("/api/dataset", handler.Routes())

	loaded := domain.DatasetInfo{Source: dataset.KindFile, RecordCount: 5, Checksum: "abc", Season: 2025}
	manager.On("Info").Return(domain.DatasetInfo{}, services.ErrDatasetNotLoaded).Once()
	manager.On("Reload", mock.Anything).
		Return(domain.DatasetInfo{}, fmt.Errorf("load dataset: %w", dataset.ErrSourceUnavailable)).Once()
	manager.On("Reload", mock.Anything).Return(loaded, nil).Once()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dataset", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dataset/reload", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dataset/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"checksum":"abc"`)

	manager.AssertExpectations(t)
}

func TestHealth_Readiness(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, newTestServer(t, false).get(t, "/api/health/ready").Code)
	assert.Equal(t, http.StatusOK, newTestServer(t, true).get(t, "/api/health/ready").Code)
}

func TestMetrics_Disabled(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, newTestServer(t, true).get(t, "/metrics").Code)
}

func TestEtagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, `"abc"`))
	assert.True(t, etagMatches(`"x", W/"abc"`, `"abc"`))
	assert.True(t, etagMatches(`*`, `"abc"`))
	assert.False(t, etagMatches(``, `"abc"`))
	assert.False(t, etagMatches(`"abd"`, `"abc"`))
}

func TestWebSocket_ConnectAndBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger, _ := testutil.NewTestLogger(t)
	hub := websocket.NewHub(logger, nil)
	hub.Start()

	handler := NewWebSocketHandler(hub, config.WebSocketConfig{}, []string{"http://localhost:5173"},
		apierrors.NewErrorHandler(logger, false), logger)
	srv := httptest.NewServer(handler)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := gorillaws.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var problem map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, apierrors.TypeWebSocketUpgrade, problem["type"])
	assert.Equal(t, "WEBSOCKET_UPGRADE_FAILED", problem["error_code"])
	resp.Body.Close()

	header = http.Header{"Origin": []string{"http://localhost:5173"}}
	conn, _, err := gorillaws.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	var msg websocket.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.TypeConnection, msg.Type)

	hub.Broadcast(websocket.TypeDatasetReloaded, map[string]int{"record_count": 5})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.TypeDatasetReloaded, msg.Type)

	conn.Close()
	hub.Stop()
	srv.Close()
}
