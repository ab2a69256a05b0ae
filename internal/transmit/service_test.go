package transmit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
)

// fakeSender registra as leituras enviadas
type fakeSender struct {
	sent    []models.VitalsReading
	sendErr error
	probes  int
}

func (f *fakeSender) SendVitals(reading models.VitalsReading) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, reading)
	return nil
}

func (f *fakeSender) TestConnection() error {
	f.probes++
	return nil
}

// fakeProvider devolve a leitura configurada
type fakeProvider struct {
	vitals models.VitalSigns
}

func (f *fakeProvider) GetVitals() models.VitalSigns {
	return f.vitals
}

func newTestTransmit(sender Sender, provider VitalsProvider) *Service {
	cfg := config.BackendConfig{
		BaseURL:         "http://localhost:8080",
		DeviceID:        "RPI-SENSOR-001",
		DeviceSecret:    "segredo",
		ReadingInterval: time.Hour, // ticks disparados manualmente nos testes
		Enabled:         true,
	}
	return NewService(cfg, sender, provider)
}

func TestTickSendsValidReading(t *testing.T) {
	sender := &fakeSender{}
	provider := &fakeProvider{vitals: models.VitalSigns{
		BPM: 72.4, SpO2: 97.2, Temperature: 36.5, FingerDetected: true,
	}}
	svc := newTestTransmit(sender, provider)

	svc.processTick()

	require.Len(t, sender.sent, 1)
	reading := sender.sent[0]
	assert.Equal(t, 72, reading.HeartRate)
	assert.Equal(t, 97, reading.SpO2)
	assert.InDelta(t, 36.5, reading.Temperature, 0.001)
	assert.NotZero(t, reading.Timestamp)
}

func TestTickSkipsUnstabilizedReading(t *testing.T) {
	sender := &fakeSender{}

	// Dedo presente mas BPM ainda zerado: leitura fora da faixa de envio
	provider := &fakeProvider{vitals: models.VitalSigns{
		BPM: 0, SpO2: 0, Temperature: 36.5, FingerDetected: true,
	}}
	svc := newTestTransmit(sender, provider)

	svc.processTick()
	assert.Empty(t, sender.sent)
}

func TestFingerRemovalSendsClearOnce(t *testing.T) {
	sender := &fakeSender{}
	provider := &fakeProvider{vitals: models.VitalSigns{
		BPM: 72, SpO2: 97, Temperature: 36.5, FingerDetected: true,
	}}
	svc := newTestTransmit(sender, provider)

	svc.processTick()
	require.Len(t, sender.sent, 1)

	// Dedo removido: uma única leitura zerada de fim de sessão
	provider.vitals = models.VitalSigns{Temperature: 36.5, FingerDetected: false}
	svc.processTick()
	require.Len(t, sender.sent, 2)

	marker := sender.sent[1]
	assert.Zero(t, marker.HeartRate)
	assert.Zero(t, marker.SpO2)
	assert.Zero(t, marker.Temperature)
	assert.NotZero(t, marker.Timestamp)

	// Intervalos seguintes sem dedo não reenviam o marcador
	svc.processTick()
	svc.processTick()
	assert.Len(t, sender.sent, 2)
}

func TestNoClearWithoutPriorFinger(t *testing.T) {
	sender := &fakeSender{}
	provider := &fakeProvider{vitals: models.VitalSigns{Temperature: 36.5}}
	svc := newTestTransmit(sender, provider)

	// Sem dedo desde o início: nada a enviar
	svc.processTick()
	svc.processTick()
	assert.Empty(t, sender.sent)
}

func TestClearResendAfterNewSession(t *testing.T) {
	sender := &fakeSender{}
	provider := &fakeProvider{vitals: models.VitalSigns{
		BPM: 72, SpO2: 97, Temperature: 36.5, FingerDetected: true,
	}}
	svc := newTestTransmit(sender, provider)

	svc.processTick()
	provider.vitals.FingerDetected = false
	svc.processTick()
	require.Len(t, sender.sent, 2)

	// Nova sessão de medição seguida de nova remoção
	provider.vitals = models.VitalSigns{
		BPM: 80, SpO2: 96, Temperature: 36.6, FingerDetected: true,
	}
	svc.processTick()
	provider.vitals.FingerDetected = false
	svc.processTick()

	require.Len(t, sender.sent, 4)
	assert.Equal(t, 80, sender.sent[2].HeartRate)
	assert.Zero(t, sender.sent[3].HeartRate)
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("coletor indisponível")}
	provider := &fakeProvider{vitals: models.VitalSigns{
		BPM: 72, SpO2: 97, Temperature: 36.5, FingerDetected: true,
	}}
	svc := newTestTransmit(sender, provider)

	svc.processTick()
	assert.Empty(t, sender.sent)
}

func TestValidateReading(t *testing.T) {
	valid := models.VitalsReading{HeartRate: 72, SpO2: 97, Temperature: 36.5}
	assert.True(t, ValidateReading(valid))

	// Limites inclusivos das faixas de envio
	assert.True(t, ValidateReading(models.VitalsReading{HeartRate: 40, SpO2: 85, Temperature: 25}))
	assert.True(t, ValidateReading(models.VitalsReading{HeartRate: 200, SpO2: 100, Temperature: 45}))

	// Cada campo fora da faixa reprova a leitura
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 39, SpO2: 97, Temperature: 36.5}))
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 201, SpO2: 97, Temperature: 36.5}))
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 72, SpO2: 84, Temperature: 36.5}))
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 72, SpO2: 101, Temperature: 36.5}))
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 72, SpO2: 97, Temperature: 24.9}))
	assert.False(t, ValidateReading(models.VitalsReading{HeartRate: 72, SpO2: 97, Temperature: 45.1}))
}

func TestBuildReadingRoundsToInt(t *testing.T) {
	reading := BuildReading(models.VitalSigns{BPM: 72.6, SpO2: 96.4, Temperature: 36.52})
	assert.Equal(t, 73, reading.HeartRate)
	assert.Equal(t, 96, reading.SpO2)
	assert.InDelta(t, 36.52, reading.Temperature, 0.001)
}
