package transmit

import (
	"context"
	"math"
	"sync"
	"time"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
	"vitals_go/pkg/logger"
)

// Faixas de sanidade aplicadas antes do envio ao coletor. Mais largas que as
// do filtro do monitor: o coletor aceita qualquer leitura fisiologicamente
// possível, o filtro decide o que é plausível.
const (
	SendHRMin   = 40
	SendHRMax   = 200
	SendSpO2Min = 85
	SendSpO2Max = 100
	SendTempMin = 25.0
	SendTempMax = 45.0
)

// Sender define o contrato de envio de leituras ao coletor
type Sender interface {
	SendVitals(reading models.VitalsReading) error
	TestConnection() error
}

// VitalsProvider fornece a leitura atual de sinais vitais
type VitalsProvider interface {
	GetVitals() models.VitalSigns
}

// Service transmite periodicamente as leituras do monitor para o backend
// coletor
type Service struct {
	sender   Sender
	provider VitalsProvider
	config   config.BackendConfig
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	mutex    sync.RWMutex

	// Dedo presente no último envio; controla o envio único da leitura
	// zerada na remoção
	fingerWasPresent bool

	// Estatísticas de envio
	stats struct {
		sent    int64
		skipped int64
		failed  int64
	}
	statsLock sync.Mutex
}

// NewService cria um novo serviço de transmissão
func NewService(cfg config.BackendConfig, sender Sender, provider VitalsProvider) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		sender:   sender,
		provider: provider,
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start inicia o loop de transmissão
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if !s.config.Enabled {
		logger.Info("Transmissão para o coletor desabilitada por configuração")
		return nil
	}

	logger.Infof("Iniciando transmissão para o coletor %s (dispositivo: %s, intervalo: %v)",
		s.config.BaseURL, s.config.DeviceID, s.config.ReadingInterval)

	// Sondar o coletor antes de iniciar; falha não impede o início, o
	// loop tenta novamente a cada intervalo
	if err := s.sender.TestConnection(); err != nil {
		logger.Warnf("Coletor inacessível no momento: %v. As leituras serão tentadas mesmo assim.", err)
	} else {
		logger.Info("Coletor acessível")
	}

	go s.transmitLoop()

	s.running = true
	return nil
}

// Stop para o loop de transmissão
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	logger.Info("Parando serviço de transmissão")
	s.cancel()
	s.running = false
}

// IsRunning verifica se o serviço está em execução
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// transmitLoop envia leituras ao coletor em intervalo fixo
func (s *Service) transmitLoop() {
	ticker := time.NewTicker(s.config.ReadingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processTick()
		}
	}
}

// processTick decide o que enviar neste intervalo com base no estado do dedo
func (s *Service) processTick() {
	vitals := s.provider.GetVitals()

	if vitals.FingerDetected {
		s.fingerWasPresent = true
		s.sendReading(vitals)
		return
	}

	if s.fingerWasPresent {
		// Dedo removido: enviar uma única leitura zerada para o coletor
		// marcar o fim da sessão de medição
		s.fingerWasPresent = false
		s.sendClear()
	}
}

// sendReading valida e envia a leitura atual
func (s *Service) sendReading(vitals models.VitalSigns) {
	reading := BuildReading(vitals)

	if !ValidateReading(reading) {
		// Leitura ainda não estabilizada (ex.: BPM zerado logo após a
		// colocação do dedo); aguardar próximo intervalo
		logger.Debugf("Leitura fora das faixas de envio, ignorada: hr=%d spo2=%d temp=%.1f",
			reading.HeartRate, reading.SpO2, reading.Temperature)
		s.statsLock.Lock()
		s.stats.skipped++
		s.statsLock.Unlock()
		return
	}

	if err := s.sender.SendVitals(reading); err != nil {
		logger.Warnf("Erro ao transmitir leitura: %v", err)
		s.statsLock.Lock()
		s.stats.failed++
		s.statsLock.Unlock()
		return
	}

	s.statsLock.Lock()
	s.stats.sent++
	s.statsLock.Unlock()
}

// sendClear envia a leitura zerada de fim de sessão. Não passa pela
// validação: zeros são o marcador esperado pelo coletor.
func (s *Service) sendClear() {
	reading := models.VitalsReading{
		HeartRate:   0,
		SpO2:        0,
		Temperature: 0,
		Timestamp:   time.Now().Unix(),
	}

	if err := s.sender.SendVitals(reading); err != nil {
		logger.Warnf("Erro ao transmitir leitura de fim de sessão: %v", err)
		s.statsLock.Lock()
		s.stats.failed++
		s.statsLock.Unlock()
		return
	}

	logger.Info("Leitura de fim de sessão enviada ao coletor")
	s.statsLock.Lock()
	s.stats.sent++
	s.statsLock.Unlock()
}

// BuildReading converte a leitura publicada no payload enviado ao coletor
func BuildReading(vitals models.VitalSigns) models.VitalsReading {
	return models.VitalsReading{
		HeartRate:   int(math.Round(vitals.BPM)),
		SpO2:        int(math.Round(vitals.SpO2)),
		Temperature: vitals.Temperature,
		Timestamp:   time.Now().Unix(),
	}
}

// ValidateReading verifica se a leitura está dentro das faixas aceitas pelo
// coletor
func ValidateReading(reading models.VitalsReading) bool {
	if reading.HeartRate < SendHRMin || reading.HeartRate > SendHRMax {
		return false
	}
	if reading.SpO2 < SendSpO2Min || reading.SpO2 > SendSpO2Max {
		return false
	}
	if reading.Temperature < SendTempMin || reading.Temperature > SendTempMax {
		return false
	}
	return true
}
