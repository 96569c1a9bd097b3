package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinerum/tripbreaker-backend/internal/config"
	"github.com/itinerum/tripbreaker-backend/internal/database"
	"github.com/itinerum/tripbreaker-backend/internal/metrics"
	"github.com/itinerum/tripbreaker-backend/internal/middleware"
	"github.com/itinerum/tripbreaker-backend/internal/models"
	"github.com/itinerum/tripbreaker-backend/internal/repository"
	"github.com/itinerum/tripbreaker-backend/internal/service"
	"github.com/itinerum/tripbreaker-backend/internal/spatial/spatialtest"
)

const secret = "router-test-secret"

var traceStart = time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	db       *sql.DB
	surveyID int64
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{JWTSecret: secret, ExportDir: t.TempDir(), ExportWorkers: 2, ExportRateLimit: 2}
	collector := metrics.NewCollector()
	services := service.New(ctx, db, service.ExportConfig{Dir: cfg.ExportDir, Workers: cfg.ExportWorkers}, collector)
	t.Cleanup(services.Close)

	survey := &models.Survey{Name: "mtl"}
	require.NoError(t, repository.NewSurveyRepository(db).Create(ctx, survey))

	return &testServer{t: t, router: SetupRouter(ctx, cfg, services, collector), db: db, surveyID: survey.ID}
}

func (s *testServer) token(role string) string {
	token, err := middleware.IssueToken(secret, s.surveyID, role, role+"@example.com", time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, role string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(role))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(method, path, role string, payload string) *httptest.ResponseRecorder {
	return s.do(method, path, role, bytes.NewBufferString(payload), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (s *testServer) addWalk(uuid string, points ...[2]float64) {
	ctx := context.Background()
	user, err := repository.NewMobileUserRepository(s.db).GetOrCreate(ctx, s.surveyID, uuid)
	require.NoError(s.t, err)

	coords := make([]models.MobileCoordinate, len(points))
	for i, p := range points {
		lat, lon := spatialtest.DestinationPoint(45.5017, -73.5673, 0, p[1])
		coords[i] = models.MobileCoordinate{
			SurveyID:     s.surveyID,
			MobileUserID: user.ID,
			Timestamp:    traceStart.Add(time.Duration(p[0]) * time.Second),
			Latitude:     lat,
			Longitude:    lon,
			HAccuracy:    10,
		}
	}
	require.NoError(s.t, repository.NewCoordinateRepository(s.db).InsertBatch(ctx, coords))
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil, "").Code)

	rec := s.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tripbreaker_active_exports")
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/survey/settings", "", nil, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, decode(t, rec, nil).Code)
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)

	var settings map[string]float64
	rec := s.do(http.MethodGet, "/api/v1/survey/settings", middleware.RoleResearcher, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &settings)
	assert.Equal(t, map[string]float64{
		"tripBreakInterval":          360,
		"tripSubwayBuffer":           300,
		"tripBreakColdStartDistance": 750,
		"gpsAccuracyThreshold":       50,
	}, settings)

	update := `{"tripBreakInterval":600,"tripSubwayBuffer":0,"tripBreakColdStartDistance":100,"gpsAccuracyThreshold":30}`
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPut, "/api/v1/survey/settings", middleware.RoleResearcher, update).Code)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPut, "/api/v1/survey/settings", middleware.RoleAdmin, `{"tripBreakInterval":600}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPut, "/api/v1/survey/settings", middleware.RoleAdmin,
		`{"tripBreakInterval":-1,"tripSubwayBuffer":0,"tripBreakColdStartDistance":100,"gpsAccuracyThreshold":30}`).Code)

	rec = s.doJSON(http.MethodPut, "/api/v1/survey/settings", middleware.RoleAdmin, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/survey/settings", middleware.RoleAdmin, nil, "")
	decode(t, rec, &settings)
	assert.Equal(t, 600.0, settings["tripBreakInterval"])
	assert.Equal(t, 0.0, settings["tripSubwayBuffer"])
}

func stopsUpload(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("stops", "stops.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSubwayEndpoints(t *testing.T) {
	s := newTestServer(t)

	body, contentType := stopsUpload(t, "latitude,longitude\n45.515,-73.561\n45.504,-73.572\nbad,row\n")
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/tripbreaker/subway", middleware.RoleParticipant, body, contentType).Code)

	body, contentType = stopsUpload(t, "latitude,longitude\n45.515,-73.561\n45.504,-73.572\nbad,row\n")
	rec := s.do(http.MethodPost, "/api/v1/tripbreaker/subway", middleware.RoleResearcher, body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported service.ImportResult
	decode(t, rec, &imported)
	assert.Equal(t, service.ImportResult{Imported: 2, Skipped: 1}, imported)

	body, contentType = stopsUpload(t, "name,code\nBerri,1\n")
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/tripbreaker/subway", middleware.RoleAdmin, body, contentType).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/tripbreaker/subway", middleware.RoleAdmin, nil, "").Code)

	var view struct {
		Stops struct {
			Type     string `json:"type"`
			Features []struct {
				Geometry struct {
					Coordinates []float64 `json:"coordinates"`
				} `json:"geometry"`
			} `json:"features"`
		} `json:"stops"`
		BufferSize float64 `json:"bufferSize"`
	}
	rec = s.do(http.MethodGet, "/api/v1/tripbreaker/subway", middleware.RoleParticipant, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, "FeatureCollection", view.Stops.Type)
	require.Len(t, view.Stops.Features, 2)
	assert.Equal(t, []float64{-73.561, 45.515}, view.Stops.Features[0].Geometry.Coordinates)
	assert.Equal(t, 300.0, view.BufferSize)

	rec = s.do(http.MethodDelete, "/api/v1/tripbreaker/subway", middleware.RoleAdmin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var removed map[string]int
	decode(t, rec, &removed)
	assert.Equal(t, 2, removed["removed"])
}

func TestUserTripsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.addWalk("u-1", [2]float64{0, 0}, [2]float64{60, 300}, [2]float64{120, 800}, [2]float64{180, 1200})

	path := "/api/v1/users/u-1/trips?startTime=2017-06-01T11:00:00Z&endTime=2017-06-01T13:00:00Z"
	rec := s.do(http.MethodGet, path, middleware.RoleResearcher, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Trips struct {
			Features []struct {
				Geometry struct {
					Type        string      `json:"type"`
					Coordinates [][]float64 `json:"coordinates"`
				} `json:"geometry"`
				Properties map[string]interface{} `json:"properties"`
			} `json:"features"`
		} `json:"trips"`
		SearchStart string `json:"searchStart"`
		SearchEnd   string `json:"searchEnd"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Trips.Features, 1)
	feature := body.Trips.Features[0]
	assert.Equal(t, "LineString", feature.Geometry.Type)
	// Default 750 m cold start trims the first two fixes
	assert.Len(t, feature.Geometry.Coordinates, 2)
	assert.Equal(t, "2017-06-01T12:02:00Z", feature.Properties["start"])
	assert.Equal(t, 1.0, feature.Properties["tripCode"])
	assert.InDelta(t, 400, feature.Properties["cumulativeDistance"], 2)
	assert.Equal(t, "2017-06-01T11:00:00Z", body.SearchStart)

	rec = s.do(http.MethodGet, "/api/v1/users/u-1/trips?startTime=2018-01-01T00:00:00Z&endTime=2018-01-02T00:00:00Z", middleware.RoleResearcher, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty map[string]interface{}
	decode(t, rec, &empty)
	assert.Equal(t, map[string]interface{}{}, empty["trips"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/users/nobody/trips?startTime=2017-06-01T11:00:00Z&endTime=2017-06-01T13:00:00Z", middleware.RoleAdmin, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/users/u-1/trips?startTime=yesterday&endTime=2017-06-01T13:00:00Z", middleware.RoleAdmin, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/users/u-1/trips", middleware.RoleAdmin, nil, "").Code)
}

func TestExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.addWalk("u-1", [2]float64{0, 0}, [2]float64{60, 800}, [2]float64{120, 1600})

	payload := `{"start":"2017-06-01T00:00:00Z","end":"2017-06-02T00:00:00Z"}`
	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodPost, "/api/v1/exports/trips", middleware.RoleParticipant, payload).Code)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodPost, "/api/v1/exports/trips", middleware.RoleAdmin, `{"start":"2017-06-02T00:00:00Z","end":"2017-06-01T00:00:00Z"}`).Code)

	rec := s.doJSON(http.MethodPost, "/api/v1/exports/trips", middleware.RoleAdmin, payload)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var created models.ExportTask
	decode(t, rec, &created)
	require.NotZero(t, created.ID)

	statusPath := fmt.Sprintf("/api/v1/exports/%d", created.ID)
	var status struct {
		models.ExportTask
		URI string `json:"uri"`
	}
	require.Eventually(t, func() bool {
		rec := s.do(http.MethodGet, statusPath, middleware.RoleAdmin, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		decode(t, rec, &status)
		return status.Status == models.ExportStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, statusPath+"/download", status.URI)
	assert.Equal(t, int64(1), status.ProcessedUsers)

	rec = s.do(http.MethodGet, statusPath+"/download", middleware.RoleAdmin, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trips_20170601.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\xEF\xBB\xBFuuid,trip,"))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/exports/999", middleware.RoleAdmin, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/exports/abc", middleware.RoleAdmin, nil, "").Code)

	// The limit of two per minute was used by the bad request and the accepted one
	assert.Equal(t, http.StatusTooManyRequests, s.doJSON(http.MethodPost, "/api/v1/exports/trips", middleware.RoleAdmin, payload).Code)
}
