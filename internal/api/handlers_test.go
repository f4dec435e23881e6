package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SoumenSample/NetraVaani/config"
	"github.com/SoumenSample/NetraVaani/internal/bus"
	"github.com/SoumenSample/NetraVaani/internal/device"
	"github.com/SoumenSample/NetraVaani/internal/interpret"
	"github.com/SoumenSample/NetraVaani/internal/light"
	"github.com/SoumenSample/NetraVaani/internal/model"
	"github.com/SoumenSample/NetraVaani/internal/notify"
)

type testEnv struct {
	router  *gin.Engine
	handler *Handler
	tracker *device.Tracker
	bridge  *light.FakeBridge
	bus     *bus.Bus
	db      *gorm.DB
	clock   time.Time
}

type apiFakeNotifier struct {
	emergencies int
	needs       []string
}

func (f *apiFakeNotifier) Emergency(deviceID string, at time.Time) { f.emergencies++ }
func (f *apiFakeNotifier) Need(deviceID, item string, at time.Time) {
	f.needs = append(f.needs, item)
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}, &model.AlertRecord{}))

	quiet := log.New(io.Discard, "", 0)
	b := bus.New(64)
	tracker := device.NewTracker(b, quiet, 15*time.Second)
	bridge := light.NewFakeBridge()
	mirror := light.NewMirror(bridge, b, quiet)

	var cfg config.Config
	config.ApplyDefaults(&cfg)

	actions := interpret.NewBusActions(b, mirror, &apiFakeNotifier{}, quiet)
	dispatcher := interpret.NewDispatcher(actions, &apiFakeNotifier{}, cfg.Interpreter, quiet)

	webpushOptions := &webpush.Options{VAPIDPublicKey: "test-public-key"}
	handler := NewHandler(db, b, tracker, mirror, dispatcher, nil, webpushOptions)

	env := &testEnv{
		handler: handler,
		tracker: tracker,
		bridge:  bridge,
		bus:     b,
		db:      db,
		clock:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	handler.now = func() time.Time { return env.clock }

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/heartbeat", handler.PostHeartbeat)
		api.POST("/blink", handler.PostBlink)
		api.POST("/blink-count", handler.PostBlinkCount)
		api.GET("/devices", handler.GetDevices)
		api.POST("/light-control", handler.PostLightControl)
		api.GET("/light-status", handler.GetLightStatus)
		api.POST("/alert", handler.PostAlert)
		api.POST("/emergency", handler.PostEmergency)
		api.POST("/interpreter", handler.PostInterpreter)
		api.GET("/interpreter", handler.GetInterpreter)
		api.DELETE("/interpreter/:mode", handler.DeleteInterpreter)
		api.POST("/interpreter/select", handler.PostInterpreterSelect)
		api.POST("/interpreter/press", handler.PostInterpreterPress)
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}
	r.GET("/sse", handler.GetSSE)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestPostHeartbeat(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "POST", "/api/heartbeat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "deviceId is mandatory")

	w = env.do(t, "POST", "/api/heartbeat", `{"deviceId":"esp32-01","rssi":-55}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Device  device.Device `json:"device"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, device.StatusOnline, resp.Device.Status)
	require.NotNil(t, resp.Device.RSSI)
	assert.Equal(t, -55, *resp.Device.RSSI)
}

func TestPostHeartbeatReportedTimestamp(t *testing.T) {
	env := setupTestEnv(t)

	ts := time.Date(2026, 3, 1, 9, 59, 58, 0, time.UTC)
	body, _ := json.Marshal(gin.H{"deviceId": "esp32-01", "ts": ts.UnixMilli()})
	w := env.do(t, "POST", "/api/heartbeat", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	devs := env.tracker.Snapshot()
	require.Len(t, devs, 1)
	assert.Equal(t, ts.UnixMilli(), devs[0].LastSeen.UnixMilli())
	assert.Equal(t, env.clock, devs[0].UpdatedAt, "liveness uses server arrival time")
}

func TestGetDevices(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/heartbeat", `{"deviceId":"b"}`)
	env.do(t, "POST", "/api/heartbeat", `{"deviceId":"a"}`)

	w := env.do(t, "GET", "/api/devices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Devices []device.Device `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 2)
	assert.Equal(t, "a", resp.Devices[0].DeviceID)
}

func TestPostBlinkDefaultsCount(t *testing.T) {
	env := setupTestEnv(t)
	_, events := env.bus.Subscribe()

	w := env.do(t, "POST", "/api/blink", `{"deviceId":"esp32-01"}`)
	require.Equal(t, http.StatusOK, w.Code)

	ev := <-events
	require.Equal(t, bus.TopicBlink, ev.Topic)
	payload := ev.Payload.(BlinkPayload)
	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, "blink", payload.Type)

	var resp struct {
		Success bool         `json:"success"`
		Event   BlinkPayload `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, payload, resp.Event, "accepted event is echoed to the caller")
}

func TestPostBlinkCountValidation(t *testing.T) {
	env := setupTestEnv(t)

	for _, body := range []string{
		`{"deviceId":"esp32-01"}`,
		`{"deviceId":"esp32-01","blinkCount":0}`,
		`{"deviceId":"esp32-01","blinkCount":11}`,
		`{"deviceId":"esp32-01","blinkCount":2.5}`,
		`{"deviceId":"esp32-01","count":3}`,
		`{"blinkCount":3}`,
	} {
		w := env.do(t, "POST", "/api/blink-count", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}

	w := env.do(t, "POST", "/api/blink-count", `{"deviceId":"esp32-01","blinkCount":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    BlinkCountPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "esp32-01", resp.Data.DeviceID)
	assert.Equal(t, 3, resp.Data.BlinkCount)
}

func TestBlinkDoesNotReviveOfflineDevice(t *testing.T) {
	env := setupTestEnv(t)

	env.do(t, "POST", "/api/heartbeat", `{"deviceId":"esp32-01"}`)
	env.tracker.Sweep(env.clock.Add(20 * time.Second))
	require.Equal(t, device.StatusOffline, env.tracker.Snapshot()[0].Status)

	env.do(t, "POST", "/api/blink", `{"deviceId":"esp32-01","count":2}`)
	env.do(t, "POST", "/api/blink-count", `{"deviceId":"esp32-01","blinkCount":3}`)

	assert.Equal(t, device.StatusOffline, env.tracker.Snapshot()[0].Status,
		"only a heartbeat brings a device back online")
}

func TestBlinkCountDrivesActiveInterpreter(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/interpreter", `{"mode":"menu"}`).Code)
	_, events := env.bus.Subscribe()

	env.do(t, "POST", "/api/blink-count", `{"deviceId":"esp32-01","blinkCount":2}`)

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Topic == bus.TopicMenu {
				assert.Equal(t, 1, ev.Payload.(interpret.MenuState).Index)
				return
			}
		case <-deadline:
			t.Fatal("no menu event observed")
		}
	}
}

func TestPostLightControl(t *testing.T) {
	env := setupTestEnv(t)

	for _, body := range []string{
		`{"light":"light3","command":"ON"}`,
		`{"light":"light1","command":"on"}`,
		`{"light":"light1"}`,
	} {
		w := env.do(t, "POST", "/api/light-control", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}

	w := env.do(t, "POST", "/api/light-control", `{"light":"light1","command":"ON"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [][2]string{{"light1", "ON"}}, env.bridge.Commands())

	w = env.do(t, "GET", "/api/light-status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"light1":"ON","light2":"OFF"}`, w.Body.String())
}

func TestPostLightControlBrokerFailure(t *testing.T) {
	env := setupTestEnv(t)
	env.bridge.Err = assert.AnError

	w := env.do(t, "POST", "/api/light-control", `{"light":"light2","command":"ON"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPostAlertProxy(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "POST", "/api/alert", `{"type":"emergency"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no webhook configured")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "emergency")
		w.Write([]byte(`{"received":true}`))
	}))
	defer srv.Close()

	env.handler.webhook = notify.NewWebhookClient(srv.URL, time.Second)
	w = env.do(t, "POST", "/api/alert", `{"type":"emergency"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestPostEmergencyCooldown(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "POST", "/api/emergency", `{"deviceId":"esp32-01"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "POST", "/api/emergency", `{"deviceId":"esp32-01"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	env.clock = env.clock.Add(6 * time.Second)
	w = env.do(t, "POST", "/api/emergency", `{"deviceId":"esp32-01"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInterpreterLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "GET", "/api/interpreter", "")
	assert.JSONEq(t, `{"mode":""}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter", `{"mode":"karaoke"}`).Code)
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/interpreter", `{"mode":"morse"}`).Code)

	w = env.do(t, "GET", "/api/interpreter", "")
	assert.JSONEq(t, `{"mode":"morse"}`, w.Body.String())

	// A stale delete from a replaced surface must not clear the new one.
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/interpreter", `{"mode":"menu"}`).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/interpreter/morse", "").Code)
	w = env.do(t, "GET", "/api/interpreter", "")
	assert.JSONEq(t, `{"mode":"menu"}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/interpreter/menu", "").Code)
	w = env.do(t, "GET", "/api/interpreter", "")
	assert.JSONEq(t, `{"mode":""}`, w.Body.String())
}

func TestInterpreterSelectAndPress(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter/select", `{"index":0}`).Code, "no session")

	env.do(t, "POST", "/api/interpreter", `{"mode":"menu"}`)
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/interpreter/select", `{"deviceId":"esp32-01","index":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter/select", `{"deviceId":"esp32-01","index":99}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter/press", `{"durationMs":100}`).Code, "menu takes no presses")

	env.do(t, "POST", "/api/interpreter", `{"mode":"morse"}`)
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/interpreter/press", `{"durationMs":100}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter/press", `{"durationMs":-5}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/interpreter/press", `{}`).Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "PUT", "/api/subscriptions", `{"endpoint":"x"}`).Code)

	body := `{"endpoint":"https://example.com/push","p256dh":"key","auth":"secret"}`
	assert.Equal(t, http.StatusCreated, env.do(t, "PUT", "/api/subscriptions", body).Code)
	assert.Equal(t, http.StatusCreated, env.do(t, "PUT", "/api/subscriptions", body).Code, "replace is idempotent")

	w := env.do(t, "GET", "/api/subscriptions?endpoint=https%3A%2F%2Fexample.com%2Fpush", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/subscriptions?endpoint=unknown", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/subscriptions", "").Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/subscriptions", `{"endpoint":"https://example.com/push"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/subscriptions?endpoint=https%3A%2F%2Fexample.com%2Fpush", "").Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "GET", "/api/vapid_public_key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())

	env.handler.webpush = &webpush.Options{}
	w = env.do(t, "GET", "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSSEReplaysDeviceSnapshot(t *testing.T) {
	env := setupTestEnv(t)
	env.do(t, "POST", "/api/heartbeat", `{"deviceId":"esp32-01"}`)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sse", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var sawStatus, sawDevice bool
	for !sawDevice {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "status") {
			sawStatus = true
		}
		if strings.HasPrefix(line, "data:") && bytes.Contains([]byte(line), []byte("esp32-01")) {
			sawDevice = true
		}
	}
	assert.True(t, sawStatus)
}
