package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
	"vitals_go/internal/redis"
	"vitals_go/internal/sensor"
	"vitals_go/internal/websocket"
	"vitals_go/pkg/logger"
)

// VitalsHandler é um tipo de função para lidar com leituras de sinais vitais
type VitalsHandler func(vitals models.VitalSigns)

// Service gerencia o ciclo de aquisição do sensor de pulso-oximetria
type Service struct {
	source            sensor.Source
	estimator         sensor.Estimator
	config            config.SensorConfig
	redisService      *redis.Service
	wsHub             *websocket.Hub
	ctx               context.Context
	cancel            context.CancelFunc
	running           bool
	mutex             sync.RWMutex
	vitals            models.VitalSigns
	status            models.MonitorStatus
	window            *sensor.Window
	filter            *sensor.Filter
	vitalsHandlers    []VitalsHandler
	handlersLock      sync.RWMutex
	consecutiveErrors int
	lastErrorMsg      string
	lastTempRead      time.Time
	lastResultPrint   time.Time
	done              chan struct{}

	// Estatísticas de desempenho
	stats struct {
		totalCycles      int64
		cycleDurations   []time.Duration
		cycleStartTime   time.Time
		avgCycleDuration time.Duration
	}
	statsLock sync.Mutex

	// Flag para envio assíncrono para o Redis
	asyncRedis bool
}

// NewService cria um novo serviço de monitoramento de sinais vitais
func NewService(cfg config.SensorConfig, source sensor.Source, estimator sensor.Estimator,
	redisService *redis.Service, wsHub *websocket.Hub) (*Service, error) {
	service := &Service{
		source:       source,
		estimator:    estimator,
		config:       cfg,
		redisService: redisService,
		wsHub:        wsHub,
		running:      false,
		asyncRedis:   true, // Ativar por padrão
		window:       sensor.NewWindow(cfg.WindowSize),
		filter:       sensor.NewFilter(),
		status: models.MonitorStatus{
			Status:    "initializing",
			Timestamp: time.Now(),
		},
		vitals: models.VitalSigns{
			Timestamp: time.Now(),
		},
	}

	// Inicializar buffer para durações de ciclo
	service.stats.cycleDurations = make([]time.Duration, 0, 100)

	return service, nil
}

// Start inicia o ciclo de aquisição do sensor
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	logger.Infof("Iniciando serviço do monitor (taxa de amostragem: %v, janela: %d amostras)",
		s.config.SampleRate, s.window.Size())

	// Cada sessão de aquisição tem contexto e canal de término próprios.
	// Reaproveitar os da sessão anterior faria um novo Start herdar um
	// contexto já cancelado e fechar s.done duas vezes.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})
	s.consecutiveErrors = 0

	// A primeira leitura de temperatura ocorre logo no primeiro ciclo
	s.lastTempRead = time.Now().Add(-s.config.TempInterval)

	// Iniciar goroutine para coletar dados
	go s.collectData(s.ctx, s.done)

	// Iniciar goroutine para monitorar estatísticas
	go s.monitorStats(s.ctx)

	s.running = true
	return nil
}

// Stop para o serviço do monitor. Zera as leituras publicadas e aguarda o
// ciclo de aquisição desligar o sensor, com limite de tempo.
func (s *Service) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.running = false
	done := s.done

	// Zerar as leituras publicadas já no pedido de parada: ninguém deve
	// consumir valores antigos como se fossem atuais enquanto o ciclo
	// encerra. A temperatura é do die do sensor e permanece válida.
	s.vitals = models.VitalSigns{
		Temperature: s.vitals.Temperature,
		Timestamp:   time.Now(),
	}
	s.mutex.Unlock()

	logger.Info("Parando serviço do monitor")
	s.cancel()

	// Aguardar o loop de aquisição encerrar e desligar o sensor
	select {
	case <-done:
		// Encerramento limpo
	case <-time.After(s.config.StopTimeout):
		logger.Warnf("Tempo limite de %v atingido aguardando o ciclo de aquisição encerrar",
			s.config.StopTimeout)
	}

	// Descartar a janela e o histórico de suavização: uma próxima sessão
	// começa sem resíduo da anterior
	s.window.Reset()
	s.filter.Reset()

	// Um último ciclo pode ter publicado entre o cancel e o encerramento do
	// loop; garantir o estado final zerado
	s.mutex.Lock()
	s.vitals = models.VitalSigns{
		Temperature: s.vitals.Temperature,
		Timestamp:   time.Now(),
	}
	s.mutex.Unlock()
}

// IsRunning verifica se o serviço está em execução
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// RegisterVitalsHandler registra uma função para receber leituras de vitais
func (s *Service) RegisterVitalsHandler(handler VitalsHandler) {
	s.handlersLock.Lock()
	defer s.handlersLock.Unlock()
	s.vitalsHandlers = append(s.vitalsHandlers, handler)
}

// GetStatus retorna o status atual do monitor
func (s *Service) GetStatus() models.MonitorStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}

// GetVitals retorna a última leitura publicada de sinais vitais
func (s *Service) GetVitals() models.VitalSigns {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.vitals
}

// SetAsyncRedis configura o envio assíncrono para o Redis
func (s *Service) SetAsyncRedis(async bool) {
	s.asyncRedis = async
}

// collectData executa o loop principal de aquisição do sensor. Recebe o
// contexto e o canal de término da própria sessão: os campos do serviço podem
// já pertencer a uma sessão mais nova quando este loop encerra
func (s *Service) collectData(ctx context.Context, done chan struct{}) {
	defer func() {
		// Desligar o sensor ao encerrar o loop, nunca antes
		if err := s.source.Shutdown(); err != nil {
			logger.Errorf("Erro ao desligar o sensor: %v", err)
		} else {
			logger.Info("Sensor colocado em modo de baixo consumo")
		}
		close(done)
	}()

	ticker := time.NewTicker(s.config.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Registrar tempo de início do ciclo
			cycleStart := time.Now()

			// Processar ciclo
			s.processTick()

			// Registrar duração do ciclo
			cycleDuration := time.Since(cycleStart)
			s.statsLock.Lock()
			atomic.AddInt64(&s.stats.totalCycles, 1)

			// Registrar duração para cálculo de média
			s.stats.cycleDurations = append(s.stats.cycleDurations, cycleDuration)
			if len(s.stats.cycleDurations) > 100 {
				// Manter apenas as últimas 100 amostras
				s.stats.cycleDurations = s.stats.cycleDurations[1:]
			}
			s.statsLock.Unlock()
		}
	}
}

// processTick processa um ciclo de aquisição: drena o FIFO do sensor,
// reavalia a janela quando cheia e publica a leitura resultante
func (s *Service) processTick() {
	// Drenar todas as amostras pendentes no FIFO do sensor
	drained := 0
	for s.source.PendingCount() > 0 {
		red, ir, err := s.source.ReadPair()
		if err != nil {
			s.handleSensorError(err)
			return
		}

		if s.config.PrintRaw && logger.IsDebugEnabled() {
			logger.Debugf("%d, %d", ir, red)
		}

		s.window.Push(red, ir)
		drained++
	}

	// Resetar contador de erros se a leitura foi bem sucedida
	if drained > 0 && s.consecutiveErrors > 0 {
		logger.Infof("Comunicação com o sensor restaurada após %d tentativas", s.consecutiveErrors)
		s.consecutiveErrors = 0
		s.updateStatus("ok", "")
	}

	// Partir da última leitura publicada; sem janela cheia nada muda além
	// da temperatura
	vitals := s.GetVitals()
	vitals.Timestamp = time.Now()

	if s.window.IsFull() {
		ir, red := s.window.Snapshot()

		if sensor.DetectFinger(ir, red) {
			vitals.FingerDetected = true

			bpm, bpmValid, spo2, spo2Valid := s.estimator.Estimate(ir, red)

			if smoothed, ok := s.filter.AcceptBPM(bpm, bpmValid); ok {
				vitals.BPM = smoothed
			}
			if accepted, ok := s.filter.AcceptSpO2(spo2, spo2Valid); ok {
				vitals.SpO2 = accepted
			}
		} else if vitals.FingerDetected || vitals.BPM != 0 || vitals.SpO2 != 0 {
			// Dedo removido: zerar leituras e descartar o histórico de
			// suavização. A temperatura é do die do sensor, não do dedo,
			// e permanece válida.
			vitals.FingerDetected = false
			vitals.BPM = 0
			vitals.SpO2 = 0
			s.filter.Reset()
		}
	}

	// Leitura de temperatura em intervalo próprio, bem mais lento que o
	// ciclo de amostragem
	if time.Since(s.lastTempRead) >= s.config.TempInterval {
		if temp, err := s.source.ReadTemperature(); err != nil {
			// Falha transitória: manter o último valor
			logger.Warnf("Erro ao ler temperatura do sensor: %v", err)
		} else {
			vitals.Temperature = temp
		}
		s.lastTempRead = time.Now()
	}

	s.publishVitals(vitals)

	if s.config.PrintResult && time.Since(s.lastResultPrint) >= 5*time.Second {
		logger.Infof("BPM: %.1f, SpO2: %.1f%%, Temperatura: %.1f°C, Dedo: %v",
			vitals.BPM, vitals.SpO2, vitals.Temperature, vitals.FingerDetected)
		s.lastResultPrint = time.Now()
	}
}

// publishVitals publica uma leitura: estado interno, WebSocket, handlers e
// Redis, nessa ordem de prioridade
func (s *Service) publishVitals(vitals models.VitalSigns) {
	// Atualizar leitura publicada
	s.mutex.Lock()
	s.vitals = vitals
	s.mutex.Unlock()

	// PRIORIDADE 1: Enviar para o WebSocket imediatamente
	if s.wsHub != nil {
		s.wsHub.BroadcastVitals(vitals)
	}

	// PRIORIDADE 2: Notificar handlers registrados
	s.notifyVitalsHandlers(vitals)

	// PRIORIDADE 3: Salvar no Redis (potencialmente assíncrono)
	if s.redisService != nil && s.redisService.IsConnected() {
		if s.asyncRedis {
			// Usar goroutine para não bloquear o ciclo de aquisição
			go func(v models.VitalSigns) {
				if err := s.redisService.WriteVitals(v); err != nil {
					logger.Errorf("Erro ao escrever sinais vitais no Redis: %v", err)
				}
			}(vitals)
		} else {
			// Versão síncrona (bloqueia até concluir)
			if err := s.redisService.WriteVitals(vitals); err != nil {
				logger.Errorf("Erro ao escrever sinais vitais no Redis: %v", err)
			}
		}
	}
}

// handleSensorError trata erros de leitura do sensor
func (s *Service) handleSensorError(err error) {
	s.consecutiveErrors++
	s.lastErrorMsg = err.Error()

	logger.Errorf("Erro ao ler o sensor: %v. Tentativa %d", err, s.consecutiveErrors)

	// Se exceder o número máximo de tentativas, atualizar status
	if s.consecutiveErrors > s.config.MaxConsecutiveErrors {
		s.updateStatus("falha_sensor", s.lastErrorMsg)
	}
}

// updateStatus atualiza o status do monitor
func (s *Service) updateStatus(status string, errorMsg string) {
	s.mutex.Lock()
	s.status = models.MonitorStatus{
		Status:     status,
		Timestamp:  time.Now(),
		LastError:  errorMsg,
		ErrorCount: s.consecutiveErrors,
	}
	statusCopy := s.status
	s.mutex.Unlock()

	// Atualizar status no Redis
	if s.redisService != nil && s.redisService.IsConnected() {
		if err := s.redisService.WriteStatus(statusCopy); err != nil {
			logger.Errorf("Erro ao escrever status no Redis: %v", err)
		}
	}

	// Enviar atualização de status via WebSocket
	if s.wsHub != nil {
		s.wsHub.BroadcastStatus(statusCopy)
	}

	// Log
	if status != "ok" {
		logger.Warnf("Status do monitor alterado para %s: %s", status, errorMsg)
	} else {
		logger.Info("Status do monitor restaurado para 'ok'")
	}
}

// notifyVitalsHandlers notifica todos os handlers registrados
func (s *Service) notifyVitalsHandlers(vitals models.VitalSigns) {
	s.handlersLock.RLock()
	handlers := s.vitalsHandlers
	s.handlersLock.RUnlock()

	for _, handler := range handlers {
		handler(vitals) // Chamada síncrona
	}
}

// monitorStats monitora estatísticas de desempenho
func (s *Service) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logPerformanceStats()
		}
	}
}

// logPerformanceStats registra estatísticas de desempenho
func (s *Service) logPerformanceStats() {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()

	totalCycles := s.stats.totalCycles

	// Calcular duração média do ciclo
	var avgDuration time.Duration
	if len(s.stats.cycleDurations) > 0 {
		var sum time.Duration
		for _, d := range s.stats.cycleDurations {
			sum += d
		}
		avgDuration = sum / time.Duration(len(s.stats.cycleDurations))
		s.stats.avgCycleDuration = avgDuration
	}

	// Registrar estatísticas
	logger.Infof("Estatísticas de desempenho: %d ciclos totais, duração média: %v",
		totalCycles, avgDuration)
}
