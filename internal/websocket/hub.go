package websocket

import (
	"context"
	"sync"
	"time"

	"vitals_go/internal/models"
	"vitals_go/pkg/logger"
)

// HistoryProvider fornece o histórico de BPM para comandos de clientes
type HistoryProvider interface {
	GetBPMHistory() ([]models.HistoryPoint, error)
}

// StatusProvider fornece o status atual do monitor para comandos de clientes
type StatusProvider interface {
	GetStatus() models.MonitorStatus
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Fontes de dados para comandos de clientes (configuradas pelo servidor)
	historyProvider HistoryProvider
	statusProvider  StatusProvider
	providerLock    sync.RWMutex

	// Última leitura enviada (para evitar duplicação)
	lastVitals     *models.VitalSigns
	lastVitalsTime time.Time
	vitalsLock     sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256), // Buffer aumentado para evitar bloqueios
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetHistoryProvider configura a fonte do histórico de BPM
func (h *Hub) SetHistoryProvider(p HistoryProvider) {
	h.providerLock.Lock()
	h.historyProvider = p
	h.providerLock.Unlock()
}

// SetStatusProvider configura a fonte do status do monitor
func (h *Hub) SetStatusProvider(p StatusProvider) {
	h.providerLock.Lock()
	h.statusProvider = p
	h.providerLock.Unlock()
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			// Contexto cancelado, encerrar o hub
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			// Registrar novo cliente
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			// Enviar dados iniciais para o cliente
			go h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			// Desregistrar cliente
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Enviar mensagem para todos os clientes
			h.mu.RLock()
			clientCount := len(h.clients)

			// Atualizar estatísticas
			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue // Nenhum cliente conectado, pular broadcast
			}

			// Broadcast otimizado
			deadClients := make([]*Client, 0, 4) // Pré-alocar para alguns clientes mortos

			for client := range h.clients {
				select {
				case client.send <- message:
					// Mensagem enviada com sucesso
				default:
					// Canal do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Remover clientes mortos aqui mesmo: reenviar para h.unregister
			// bloquearia o próprio loop que consome esse canal
			if len(deadClients) > 0 {
				h.mu.Lock()
				for _, client := range deadClients {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
						logger.Infof("Cliente WebSocket removido por buffer cheio. ID: %s. Total: %d",
							client.id, len(h.clients))
					}
				}
				h.mu.Unlock()
			}

		case cmd := <-h.commands:
			// Processar comando de um cliente
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			// Calcular taxa de mensagens por segundo
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}

			// Resetar contador para próximo cálculo
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()

			// Obter estatísticas para log
			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			// Obter número de clientes
			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-pingTicker.C:
			// Enviar ping para todos os clientes para manter conexões ativas
			h.sendPingToAllClients()
		}
	}
}

// BroadcastVitals envia os sinais vitais para todos os clientes
func (h *Hub) BroadcastVitals(vitals models.VitalSigns) {
	// Verificar se devemos limitar a taxa de envio
	h.vitalsLock.Lock()

	// Se a última leitura foi enviada há menos de 200ms, ignorar
	// exceto se houver mudanças significativas
	shouldSend := true
	if h.lastVitals != nil {
		timeSinceLastSend := time.Since(h.lastVitalsTime)

		if timeSinceLastSend < 200*time.Millisecond {
			significantChange := vitals.FingerDetected != h.lastVitals.FingerDetected ||
				abs(vitals.BPM-h.lastVitals.BPM) > 0.5 ||
				abs(vitals.SpO2-h.lastVitals.SpO2) > 0.5

			// Se não houver mudança significativa, ignorar esta atualização
			if !significantChange {
				shouldSend = false
			}
		}
	}

	// Atualizar última leitura enviada
	h.lastVitals = &vitals
	h.lastVitalsTime = time.Now()
	h.vitalsLock.Unlock()

	if !shouldSend {
		return
	}

	// Criar mensagem
	message := models.VitalsMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "vitals",
			Timestamp: time.Now(),
		},
		BPM:            vitals.BPM,
		SpO2:           vitals.SpO2,
		Temperature:    vitals.Temperature,
		FingerDetected: vitals.FingerDetected,
	}

	// Serializar e enviar a mensagem. O envio nunca bloqueia o chamador:
	// com o buffer de broadcast cheio a leitura é descartada
	if jsonMessage, err := SerializeMessage(message); err == nil {
		select {
		case h.broadcast <- jsonMessage:
		default:
			logger.Warn("Buffer de broadcast cheio, leitura de sinais vitais descartada")
		}
	} else {
		logger.Error("Erro ao serializar mensagem de sinais vitais", err)
	}
}

// BroadcastStatus envia atualização de status para todos os clientes
func (h *Hub) BroadcastStatus(status models.MonitorStatus) {
	message := models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status:     status.Status,
		LastError:  status.LastError,
		ErrorCount: status.ErrorCount,
	}

	// Serializar e enviar a mensagem, sem bloquear o chamador
	if jsonMessage, err := SerializeMessage(message); err == nil {
		select {
		case h.broadcast <- jsonMessage:
		default:
			logger.Warn("Buffer de broadcast cheio, atualização de status descartada")
		}
	} else {
		logger.Error("Erro ao serializar mensagem de status", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	switch cmd.Command {
	case "get_history":
		h.sendBPMHistory(cmd.ClientID)
	case "get_status":
		h.sendCurrentStatus(cmd.ClientID)
	case "ping":
		h.sendPong(cmd.ClientID, cmd.Params)
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
	}
}

// sendBPMHistory envia o histórico de BPM para um cliente específico
func (h *Hub) sendBPMHistory(clientID string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	h.providerLock.RLock()
	provider := h.historyProvider
	h.providerLock.RUnlock()

	if provider == nil {
		return
	}

	history, err := provider.GetBPMHistory()
	if err != nil {
		logger.Warnf("Erro ao obter histórico de BPM para o cliente %s: %v", clientID, err)
		return
	}

	message := models.HistoryMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "history",
			Timestamp: time.Now(),
		},
		History: history,
	}

	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendCurrentStatus envia status atual para um cliente específico
func (h *Hub) sendCurrentStatus(clientID string) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	h.providerLock.RLock()
	provider := h.statusProvider
	h.providerLock.RUnlock()

	if provider == nil {
		return
	}

	status := provider.GetStatus()
	message := models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status:     status.Status,
		LastError:  status.LastError,
		ErrorCount: status.ErrorCount,
	}

	if jsonMsg, err := SerializeMessage(message); err == nil {
		client.send <- jsonMsg
	}
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	// Extrair timestamp do ping
	var pingTime int64
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if timeVal, ok := paramsMap["time"].(float64); ok {
			pingTime = int64(timeVal)
		}
	}

	// Criar mensagem de pong
	pong := models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}

	// Serializar e enviar apenas para o cliente solicitante
	if jsonMsg, err := SerializeMessage(pong); err == nil {
		client.send <- jsonMsg
	}
}

// sendInitialDataToClient envia dados iniciais para um novo cliente
func (h *Hub) sendInitialDataToClient(client *Client) {
	// Enviar mensagem de boas-vindas
	welcome := models.WebSocketMessage{
		Type:      "welcome",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao servidor Vitals Monitor",
			"clientId": client.id,
		},
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.send <- jsonMsg
	}

	// Enviar o status atual, se disponível
	h.providerLock.RLock()
	provider := h.statusProvider
	h.providerLock.RUnlock()

	if provider != nil {
		h.sendCurrentStatus(client.id)
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	// Chamado de dentro do próprio Run: enviar para h.broadcast sem
	// possibilidade de descarte travaria o loop
	if jsonMsg, err := SerializeMessage(ping); err == nil {
		h.mu.RLock()
		if len(h.clients) > 0 {
			select {
			case h.broadcast <- jsonMsg:
			default:
			}
		}
		h.mu.RUnlock()
	}
}

// abs retorna o valor absoluto de um float64
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
