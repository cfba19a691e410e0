package config

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHandler_Get(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	handler := ConfigHandler(configFile)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got RuntimeConfig
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.True(t, got.Ornament.StartOn)
	assert.Equal(t, 10*time.Millisecond, got.Ornament.TickDelay)
	assert.Equal(t, 2, got.Ornament.ChaseTail)
}

func TestConfigHandler_TickDelayAsDurationString(t *testing.T) {
	configFile := createConfigFile(t, baseConfig)
	handler := ConfigHandler(configFile)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"TickDelay":"10ms"`)

	body := `{"Ornament":{"StartOn":true,"TickDelay":"25ms","ChaseTail":2}}`
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, w.Code)

	current, err := ReadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, current.Ornament.TickDelay)
}

func TestOrnamentConfig_UnmarshalTickDelay(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    time.Duration
		wantErr bool
	}{
		{"duration string", `{"TickDelay":"1.5s"}`, 1500 * time.Millisecond, false},
		{"nanoseconds", `{"TickDelay":10000000}`, 10 * time.Millisecond, false},
		{"missing", `{"ChaseTail":3}`, 0, false},
		{"bad string", `{"TickDelay":"soon"}`, 0, true},
		{"wrong type", `{"TickDelay":true}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o OrnamentConfig
			err := json.Unmarshal([]byte(tt.json), &o)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.TickDelay)
		})
	}
}

func TestConfigHandler_MethodNotAllowed(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestConfigHandler_SetValidation(t *testing.T) {
	valid := func() RuntimeConfig {
		return RuntimeConfig{Ornament: OrnamentConfig{
			StartOn:   true,
			TickDelay: 10 * time.Millisecond,
			ChaseTail: 2,
		}}
	}

	tests := []struct {
		name         string
		payload      RuntimeConfig
		wantStatus   int
		wantErrorMsg string
		shouldModify bool
	}{
		{
			name: "Valid Update",
			payload: func() RuntimeConfig {
				c := valid()
				c.Ornament.StartOn = false
				c.Ornament.ChaseTail = 5
				return c
			}(),
			wantStatus:   http.StatusOK,
			shouldModify: true,
		},
		{
			name: "Negative Tick Delay",
			payload: func() RuntimeConfig {
				c := valid()
				c.Ornament.TickDelay = -5 * time.Millisecond
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "must be positive",
		},
		{
			name: "Chase Tail Too Long",
			payload: func() RuntimeConfig {
				c := valid()
				c.Ornament.ChaseTail = 20
				return c
			}(),
			wantStatus:   http.StatusBadRequest,
			wantErrorMsg: "must be between 0 and 11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := createConfigFile(t, baseConfig)
			handler := ConfigHandler(configFile)

			body, err := json.Marshal(tt.payload)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBuffer(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantErrorMsg != "" {
				assert.Contains(t, w.Body.String(), tt.wantErrorMsg)
			}

			current, err := ReadConfig(configFile)
			require.NoError(t, err)
			if tt.shouldModify {
				assert.Equal(t, tt.payload.Ornament, current.Ornament)
			} else {
				assert.Equal(t, valid().Ornament, current.Ornament, "file should not change")
			}
			// hardware settings survive the round trip
			assert.Equal(t, []float64{1, 0.8, 0.6}, current.Hardware.Display.ColorCorrection)
			assert.Equal(t, "/var/log/ornament-hw.log", current.Logging.HW.File)
		})
	}
}

func TestConfigHandler_SetBadJSON(t *testing.T) {
	handler := ConfigHandler(createConfigFile(t, baseConfig))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
