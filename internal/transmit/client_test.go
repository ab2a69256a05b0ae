package transmit

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
)

func backendConfig(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:      baseURL,
		DeviceID:     "RPI-SENSOR-001",
		DeviceSecret: "segredo-de-teste",
		Enabled:      true,
	}
}

func TestSendVitalsSignedRequest(t *testing.T) {
	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := backendConfig(srv.URL)
	client := NewClient(cfg)

	reading := models.VitalsReading{
		HeartRate:   72,
		SpO2:        97,
		Temperature: 36.5,
		Timestamp:   1700000000,
	}
	require.NoError(t, client.SendVitals(reading))

	assert.Equal(t, "/api/device/vitals", gotPath)
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "RPI-SENSOR-001", gotHeaders.Get("X-Device-Id"))
	assert.Equal(t, "1700000000", gotHeaders.Get("X-Timestamp"))

	// O coletor valida recomputando a assinatura sobre os bytes recebidos
	expected := Signature(cfg.DeviceSecret, "1700000000", gotBody)
	assert.Equal(t, expected, gotHeaders.Get("X-Signature"))

	// O corpo é o JSON canônico da leitura
	var decoded models.VitalsReading
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, reading, decoded)
}

func TestSignatureDeterministic(t *testing.T) {
	body := []byte(`{"heartRate":72,"spo2":97,"temperature":36.5,"timestamp":1700000000}`)

	a := Signature("segredo", "1700000000", body)
	b := Signature("segredo", "1700000000", body)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}

func TestSignatureSensitivity(t *testing.T) {
	body := []byte(`{"heartRate":72,"spo2":97,"temperature":36.5,"timestamp":1700000000}`)
	base := Signature("segredo", "1700000000", body)

	// Qualquer alteração no segredo, timestamp ou corpo muda a assinatura
	assert.NotEqual(t, base, Signature("outro-segredo", "1700000000", body))
	assert.NotEqual(t, base, Signature("segredo", "1700000001", body))

	tampered := []byte(`{"heartRate":73,"spo2":97,"temperature":36.5,"timestamp":1700000000}`)
	assert.NotEqual(t, base, Signature("segredo", "1700000000", tampered))
}

func TestSendVitalsRejectedByCollector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "assinatura inválida", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(backendConfig(srv.URL))
	err := client.SendVitals(models.VitalsReading{HeartRate: 72, SpO2: 97, Timestamp: 1700000000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendVitalsCollectorUnreachable(t *testing.T) {
	client := NewClient(backendConfig("http://127.0.0.1:1"))
	err := client.SendVitals(models.VitalsReading{HeartRate: 72, SpO2: 97, Timestamp: 1700000000})
	assert.Error(t, err)
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(backendConfig(srv.URL))
	assert.NoError(t, client.TestConnection())
}

func TestTestConnectionDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(backendConfig(srv.URL))
	assert.Error(t, client.TestConnection())
}
