package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"happyshaa/internal/config"
	"happyshaa/internal/models"
	"happyshaa/internal/repositories/sqlstore"
	"happyshaa/internal/services"
	"happyshaa/internal/utils"
	"happyshaa/internal/validators"
	"happyshaa/pkg/cache"
	"happyshaa/pkg/database"
	"happyshaa/pkg/logger"
	"happyshaa/pkg/storage"
	"happyshaa/pkg/telephony"
	"happyshaa/pkg/vision"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validators.RegisterWithGin(); err != nil {
		panic(err)
	}
}

type fakeTelephony struct {
	mu  sync.Mutex
	sms []*telephony.SMSRequest
}

func (f *fakeTelephony) Name() string { return "fake" }

func (f *fakeTelephony) SendSMS(ctx context.Context, req *telephony.SMSRequest) (*telephony.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sms = append(f.sms, req)
	return &telephony.SMSResponse{MessageID: "SM1", Status: "queued"}, nil
}

func (f *fakeTelephony) PlaceCall(ctx context.Context, req *telephony.CallRequest) (*telephony.CallResponse, error) {
	return nil, telephony.ErrVoiceUnsupported
}

type fixedClassifier struct{ verdict vision.Verdict }

func (f *fixedClassifier) Classify(ctx context.Context, jpeg []byte) (*vision.Verdict, error) {
	v := f.verdict
	return &v, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testAPI struct {
	router    *gin.Engine
	telephony *fakeTelephony
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := database.NewSQL(&database.SQLConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.EmergencyConfig{
		ThresholdLow: 30, ThresholdMedium: 50, ThresholdHigh: 70,
		DefaultCountdown: 10, MinCountdown: 5, MaxCountdown: 30,
		SampleInterval: time.Hour, MaxInFlight: 1, MaxFrameSize: 64, JPEGQuality: 80,
		FrameStaleAfter: time.Minute, IdleTimeout: time.Minute, LeaseTTL: time.Minute,
		NotifyLimit: 2, DispatchTimeout: 5 * time.Second, MaxFrameBytes: 1 << 20,
		DefaultLogsLimit: 50,
	}
	log := logger.Nop()
	cacheSvc := services.NewCacheService(cache.NewLocalCache(time.Minute, time.Minute), log)

	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	tel := &fakeTelephony{}
	classifier := &fixedClassifier{verdict: vision.Verdict{Emergency: false, Confidence: 5, Type: models.DetectionNone}}

	settings := services.NewSettingsService(sqlstore.NewSettingsRepository(db), cacheSvc, nil, log, cfg)
	contacts := services.NewContactService(sqlstore.NewContactRepository(db), log)
	relay := services.NewRelayService(tel, nil, log, nil)
	logs := services.NewEmergencyLogService(sqlstore.NewEmergencyLogRepository(db), nil, cfg.DefaultLogsLimit)
	monitor := services.NewMonitorService(services.MonitorDeps{
		Settings:   settings,
		Notifier:   services.NewNotifierService(contacts, relay, log, cfg.NotifyLimit, ""),
		Evidence:   services.NewEvidenceService(store, log, nil),
		Logs:       logs,
		Cache:      cacheSvc,
		Classifier: classifier,
		Logger:     log,
		Config:     cfg,
	})
	t.Cleanup(func() { monitor.Shutdown(context.Background()) })

	emergency := NewEmergencyHandler(monitor, settings, logs, log, cfg.MaxFrameBytes)
	relays := NewRelayHandler(services.NewClassifierService(classifier, nil, cfg.MaxFrameBytes, cfg.MaxFrameSize, cfg.JPEGQuality), relay, log)
	contactHandler := NewContactHandler(contacts, log)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		if u := c.GetHeader("X-User"); u != "" {
			c.Set("user_id", u)
		}
		c.Next()
	})
	api.POST("/emergency/monitoring/start", emergency.StartMonitoring)
	api.POST("/emergency/monitoring/stop", emergency.StopMonitoring)
	api.GET("/emergency/monitoring/status", emergency.GetStatus)
	api.POST("/emergency/monitoring/frame", emergency.PushFrame)
	api.POST("/emergency/monitoring/location", emergency.UpdateLocation)
	api.POST("/emergency/alert/cancel", emergency.CancelAlert)
	api.GET("/emergency/settings", emergency.GetSettings)
	api.PUT("/emergency/settings", emergency.UpdateSettings)
	api.GET("/emergency/logs", emergency.GetLogs)
	api.POST("/emergency/classify", relays.Classify)
	api.POST("/emergency/notify", relays.Notify)
	api.GET("/contacts", contactHandler.List)
	api.POST("/contacts", contactHandler.Create)
	api.DELETE("/contacts/:id", contactHandler.Delete)
	api.PUT("/contacts/:id/emergency", contactHandler.SetEmergency)

	return &testAPI{router: r, telephony: tel}
}

func (a *testAPI) do(t *testing.T, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	return a.serve(t, req)
}

func (a *testAPI) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestRequiresUser(t *testing.T) {
	api := newTestAPI(t)
	code, env := api.do(t, http.MethodGet, "/api/v1/emergency/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, utils.CodeUnauthorized, env.Error.Code)
}

func TestContactEndpoints(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/v1/contacts", "u-1", gin.H{
		"name":         "Dana",
		"phone_number": "+1 555-123-0001",
		"relationship": "sister",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var contact models.EmergencyContact
	require.NoError(t, json.Unmarshal(env.Data, &contact))
	assert.Equal(t, "+15551230001", contact.PhoneNumber)
	assert.False(t, contact.IsEmergency)

	code, env = api.do(t, http.MethodPost, "/api/v1/contacts", "u-1", gin.H{"name": "Bad", "phone_number": "12"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)
	assert.Contains(t, env.Error.Details, "phonenumber")

	code, _ = api.do(t, http.MethodPut, "/api/v1/contacts/"+contact.ID+"/emergency", "u-1", gin.H{"is_emergency": true})
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(t, http.MethodGet, "/api/v1/contacts?emergency=true", "u-1", nil)
	require.Equal(t, http.StatusOK, code)
	var list []models.EmergencyContact
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, env = api.do(t, http.MethodPut, "/api/v1/contacts/"+contact.ID+"/emergency", "u-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	code, env = api.do(t, http.MethodDelete, "/api/v1/contacts/"+contact.ID, "u-2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, utils.CodeNotFound, env.Error.Code)

	code, _ = api.do(t, http.MethodDelete, "/api/v1/contacts/"+contact.ID, "u-1", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSettingsEndpoints(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/api/v1/emergency/settings", "u-1", nil)
	require.Equal(t, http.StatusOK, code)
	var settings models.SettingsResponse
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.False(t, settings.Stored)
	assert.Equal(t, 10, settings.CountdownSeconds)

	code, env = api.do(t, http.MethodPut, "/api/v1/emergency/settings", "u-1", gin.H{
		"countdown_seconds": 99,
		"sensitivity":       "high",
		"enable_911":        true,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.True(t, settings.Stored)
	assert.Equal(t, 30, settings.CountdownSeconds)
	assert.Equal(t, 70, settings.Threshold)
	assert.True(t, settings.Enable911)

	code, env = api.do(t, http.MethodPut, "/api/v1/emergency/settings", "u-1", gin.H{"sensitivity": "extreme"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	code, _ = api.do(t, http.MethodPut, "/api/v1/emergency/settings", "u-1", gin.H{"sensitivity_slider": 150})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMonitoringEndpoints(t *testing.T) {
	api := newTestAPI(t)
	frame := testJPEG(t)

	code, env := api.do(t, http.MethodPost, "/api/v1/emergency/alert/cancel", "u-1", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, utils.CodeNoPendingAlert, env.Error.Code)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/frame", "u-1", gin.H{
		"image": base64.StdEncoding.EncodeToString(frame),
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, utils.CodeNotMonitoring, env.Error.Code)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/start", "u-1", gin.H{
		"location": gin.H{"lat": 10.5, "lng": 20.25},
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"state":"monitoring"`)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/start", "u-1", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, utils.CodeAlreadyMonitoring, env.Error.Code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/frame", "u-1", gin.H{
		"image": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(frame),
	})
	assert.Equal(t, http.StatusAccepted, code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("frame", "frame.jpg")
	require.NoError(t, err)
	_, err = part.Write(frame)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency/monitoring/frame", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User", "u-1")
	code, _ = api.serve(t, req)
	assert.Equal(t, http.StatusAccepted, code)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/frame", "u-1", gin.H{"image": "bm90IGFuIGltYWdl"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/location", "u-1", gin.H{"lat": 11, "lng": 21})
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/location", "u-1", gin.H{"lat": 100, "lng": 21})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = api.do(t, http.MethodGet, "/api/v1/emergency/monitoring/status", "u-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"threshold":50`)

	code, _ = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/stop", "u-1", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/monitoring/stop", "u-1", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, utils.CodeNotMonitoring, env.Error.Code)
}

func TestLogsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/api/v1/emergency/logs?limit=abc", "u-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	code, env = api.do(t, http.MethodGet, "/api/v1/emergency/logs?limit=5", "u-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"logs":[],"count":0}`, string(env.Data))
}

func TestClassifyEndpoint(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/v1/emergency/classify", "u-1", gin.H{
		"image": base64.StdEncoding.EncodeToString(testJPEG(t)),
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	var verdict vision.Verdict
	require.NoError(t, json.Unmarshal(env.Data, &verdict))
	assert.False(t, verdict.Emergency)
	assert.Equal(t, models.DetectionNone, verdict.Type)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/classify", "u-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)
}

func TestNotifyEndpoint(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodPost, "/api/v1/emergency/notify", "u-1", gin.H{
		"phoneNumber": "+15551230001",
		"contactName": "Dana",
		"gpsLocation": gin.H{"lat": 1.5, "lng": 2.5},
		"sendSMS":     true,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	var resp models.NotifyResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Results.SMS)
	assert.True(t, resp.Results.SMS.Success)
	assert.Nil(t, resp.Results.Call)
	require.Len(t, api.telephony.sms, 1)
	assert.Contains(t, api.telephony.sms[0].Message, "https://maps.google.com/?q=1.500000,2.500000")

	// voice is unsupported by the fake provider
	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/notify", "u-1", gin.H{
		"phoneNumber": "+15551230001",
		"contactName": "Dana",
		"sendCall":    true,
	})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	code, env = api.do(t, http.MethodPost, "/api/v1/emergency/notify", "u-1", gin.H{
		"phoneNumber": "+15551230001",
		"contactName": "Dana",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, utils.CodeValidation, env.Error.Code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/emergency/notify", "u-1", gin.H{
		"phoneNumber": "call me",
		"contactName": "Dana",
		"sendSMS":     true,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}
