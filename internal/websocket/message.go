package websocket

import (
	"encoding/json"
	"time"

	"vitals_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewVitalsMessage cria uma nova mensagem de sinais vitais
func NewVitalsMessage(vitals models.VitalSigns) *models.VitalsMessage {
	return &models.VitalsMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "vitals",
			Timestamp: time.Now(),
		},
		BPM:            vitals.BPM,
		SpO2:           vitals.SpO2,
		Temperature:    vitals.Temperature,
		FingerDetected: vitals.FingerDetected,
	}
}

// NewStatusMessage cria uma nova mensagem de status
func NewStatusMessage(status models.MonitorStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status:     status.Status,
		LastError:  status.LastError,
		ErrorCount: status.ErrorCount,
	}
}

// NewHistoryMessage cria uma nova mensagem com histórico de BPM
func NewHistoryMessage(history []models.HistoryPoint) *models.HistoryMessage {
	return &models.HistoryMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "history",
			Timestamp: time.Now(),
		},
		History: history,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}
