package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals_go/internal/models"
)

func TestNewVitalsMessage(t *testing.T) {
	vitals := models.VitalSigns{
		BPM: 72.5, SpO2: 97, Temperature: 36.5, FingerDetected: true,
	}

	msg := NewVitalsMessage(vitals)
	assert.Equal(t, "vitals", msg.Type)
	assert.Equal(t, 72.5, msg.BPM)
	assert.True(t, msg.FingerDetected)

	data, err := SerializeMessage(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "vitals", decoded["type"])
	assert.Equal(t, 72.5, decoded["bpm"])
	assert.Equal(t, true, decoded["fingerDetected"])
}

func TestNewStatusMessage(t *testing.T) {
	msg := NewStatusMessage(models.MonitorStatus{
		Status: "falha_sensor", LastError: "falha no barramento i2c", ErrorCount: 6,
	})

	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, "falha_sensor", msg.Status)
	assert.Equal(t, 6, msg.ErrorCount)
}

func TestParseClientCommand(t *testing.T) {
	cmd, err := ParseClientCommand([]byte(`{"type":"get_history","id":"req-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "get_history", cmd.Type)
	assert.Equal(t, "req-1", cmd.ID)

	_, err = ParseClientCommand([]byte(`nao é json`))
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("Formato de mensagem inválido", "invalid_format")
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "Formato de mensagem inválido", msg.Error)
}
