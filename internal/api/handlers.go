package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vitals_go/internal/models"
	"vitals_go/internal/monitor"
	"vitals_go/internal/redis"
	"vitals_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	monitorService *monitor.Service
	redisService   *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(monitorService *monitor.Service, redisService *redis.Service) *Handler {
	return &Handler{
		monitorService: monitorService,
		redisService:   redisService,
	}
}

// GetStatus retorna o status atual do monitor
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	// O serviço do monitor é a fonte da verdade; o Redis é fallback para
	// quando o monitor ainda não inicializou
	var status models.MonitorStatus
	if h.monitorService != nil {
		status = h.monitorService.GetStatus()
	} else if h.redisService != nil && h.redisService.IsConnected() {
		redisStatus, err := h.redisService.GetStatus()
		if err != nil {
			h.respondWithError(w, http.StatusServiceUnavailable, "Status indisponível")
			return
		}
		status = *redisStatus
	}

	// Formatar resposta
	response := map[string]interface{}{
		"status":    status.Status,
		"timestamp": status.Timestamp.UnixNano() / int64(time.Millisecond),
		"running":   h.monitorService != nil && h.monitorService.IsRunning(),
	}

	// Adicionar informações de erro, se houver
	if status.LastError != "" {
		response["lastError"] = status.LastError
	}
	if status.ErrorCount > 0 {
		response["errorCount"] = status.ErrorCount
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetCurrentVitals retorna a leitura atual de sinais vitais
func (h *Handler) GetCurrentVitals(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if h.monitorService == nil {
		h.respondWithError(w, http.StatusNotFound, "Nenhum dado disponível")
		return
	}

	vitals := h.monitorService.GetVitals()

	// Formatar resposta
	response := map[string]interface{}{
		"bpm":            vitals.BPM,
		"spo2":           vitals.SpO2,
		"temperature":    vitals.Temperature,
		"fingerDetected": vitals.FingerDetected,
		"timestamp":      vitals.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetBPMHistory retorna o histórico recente de BPM
func (h *Handler) GetBPMHistory(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var history []models.HistoryPoint

	// O histórico vive no Redis
	if h.redisService != nil && h.redisService.IsConnected() {
		redisHistory, err := h.redisService.GetBPMHistory()
		if err == nil {
			history = redisHistory
		}
	}

	// Se não houver histórico, responder com array vazio
	if history == nil {
		history = []models.HistoryPoint{}
	}

	h.respondWithJSON(w, http.StatusOK, history)
}

// GetSpO2History retorna o histórico recente de SpO2
func (h *Handler) GetSpO2History(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var history []models.HistoryPoint

	if h.redisService != nil && h.redisService.IsConnected() {
		redisHistory, err := h.redisService.GetSpO2History()
		if err == nil {
			history = redisHistory
		}
	}

	if history == nil {
		history = []models.HistoryPoint{}
	}

	h.respondWithJSON(w, http.StatusOK, history)
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		// Se falhar ao codificar JSON, tentar responder com erro simples
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
