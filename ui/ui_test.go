package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pinbus/pinbus/bridge"
	"github.com/pinbus/pinbus/logs"
	"github.com/pinbus/pinbus/message"
)

func TestStatusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log = logs.NewWithWriter(&buf)
	status = bridge.NewStatus()
	status.SetOutbound(&message.Outbound{
		Sender: message.Sender{Name: "pinbus", MACLastByte: 237},
		Analog: []int{1, 2, 3, 4, 5, 6},
	})
	status.SetDuty(8, 200)

	r := newRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", w.Code)
	}
	var snap bridge.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal status body '%s': %v", w.Body.String(), err)
	}
	if snap.Published != 1 {
		t.Errorf("published = %d, want 1", snap.Published)
	}
	if snap.Duties[8] != 200 {
		t.Errorf("duties[8] = %d, want 200", snap.Duties[8])
	}
	if snap.LastOutbound == nil || snap.LastOutbound.Sender.MACLastByte != 237 {
		t.Errorf("last outbound = %+v, want mac last byte 237", snap.LastOutbound)
	}
}

func TestHealthzHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log = logs.NewWithWriter(&buf)
	status = bridge.NewStatus()

	r := newRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("GET /healthz = %d '%s', want 200 'ok'", w.Code, w.Body.String())
	}
}
