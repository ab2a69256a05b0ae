package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
	"vitals_go/pkg/logger"
)

// Tamanho máximo dos históricos de BPM e SpO2 mantidos no Redis
const maxHistorySize = 1000

// Service gerencia a conexão e operações com o Redis local
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{config: cfg, connected: false}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	// Testar conexão; falha não é fatal, o serviço opera em modo offline
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.mutex.Lock()
	s.connected = true
	s.mutex.Unlock()
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// WriteVitals escreve os sinais vitais atuais e seus históricos no Redis
func (s *Service) WriteVitals(vitals models.VitalSigns) error {
	if !s.IsConnected() {
		return nil
	}

	pipe := s.client.Pipeline()
	timestamp := vitals.Timestamp.UnixNano() / int64(time.Millisecond)

	// Valores atuais
	pipe.Set(s.ctx, fmt.Sprintf("%s:bpm", s.prefix), vitals.BPM, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:spo2", s.prefix), vitals.SpO2, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:temperature", s.prefix), vitals.Temperature, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:finger", s.prefix), vitals.FingerDetected, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	// Históricos com timestamp, limitados às últimas maxHistorySize entradas.
	// Leituras zeradas (sem dedo) não entram no histórico.
	if vitals.BPM > 0 {
		histKey := fmt.Sprintf("%s:bpm:history", s.prefix)
		pipe.ZAdd(s.ctx, histKey, &redis.Z{Score: float64(timestamp), Member: vitals.BPM})
		pipe.ZRemRangeByRank(s.ctx, histKey, 0, -(maxHistorySize + 1))
	}
	if vitals.SpO2 > 0 {
		histKey := fmt.Sprintf("%s:spo2:history", s.prefix)
		pipe.ZAdd(s.ctx, histKey, &redis.Z{Score: float64(timestamp), Member: vitals.SpO2})
		pipe.ZRemRangeByRank(s.ctx, histKey, 0, -(maxHistorySize + 1))
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever sinais vitais no Redis: %w", err)
	}

	return nil
}

// WriteStatus escreve o status do monitor no Redis
func (s *Service) WriteStatus(status models.MonitorStatus) error {
	if !s.IsConnected() {
		return nil
	}

	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:status", s.prefix), status.Status, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:status:timestamp", s.prefix),
		status.Timestamp.UnixNano()/int64(time.Millisecond), 0)

	if status.LastError != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_erro", s.prefix), status.LastError, 0)
	}
	if status.ErrorCount > 0 {
		pipe.Set(s.ctx, fmt.Sprintf("%s:erros_consecutivos", s.prefix), status.ErrorCount, 0)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}

	return nil
}

// GetCurrentVitals obtém os sinais vitais atuais do Redis
func (s *Service) GetCurrentVitals() (*models.VitalSigns, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	vitals := &models.VitalSigns{Timestamp: time.Now()}

	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:bpm", s.prefix)); cmd.Err() == nil {
		if v, err := cmd.Float64(); err == nil {
			vitals.BPM = v
		}
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:spo2", s.prefix)); cmd.Err() == nil {
		if v, err := cmd.Float64(); err == nil {
			vitals.SpO2 = v
		}
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:temperature", s.prefix)); cmd.Err() == nil {
		if v, err := cmd.Float64(); err == nil {
			vitals.Temperature = v
		}
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:finger", s.prefix)); cmd.Err() == nil {
		if v, err := cmd.Bool(); err == nil {
			vitals.FingerDetected = v
		}
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix)); cmd.Err() == nil {
		if ts, err := cmd.Int64(); err == nil {
			vitals.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}

	return vitals, nil
}

// GetStatus obtém o status atual do monitor do Redis
func (s *Service) GetStatus() (*models.MonitorStatus, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	statusCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:status", s.prefix))
	if statusCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter status: %w", statusCmd.Err())
	}

	status := &models.MonitorStatus{
		Status:    statusCmd.Val(),
		Timestamp: time.Now(),
	}

	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:status:timestamp", s.prefix)); cmd.Err() == nil {
		if ts, err := cmd.Int64(); err == nil {
			status.Timestamp = time.Unix(0, ts*int64(time.Millisecond))
		}
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:ultimo_erro", s.prefix)); cmd.Err() == nil {
		status.LastError = cmd.Val()
	}
	if cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:erros_consecutivos", s.prefix)); cmd.Err() == nil {
		if count, err := cmd.Int(); err == nil {
			status.ErrorCount = count
		}
	}

	return status, nil
}

// GetBPMHistory obtém o histórico recente de BPM
func (s *Service) GetBPMHistory() ([]models.HistoryPoint, error) {
	return s.getHistory(fmt.Sprintf("%s:bpm:history", s.prefix))
}

// GetSpO2History obtém o histórico recente de SpO2
func (s *Service) GetSpO2History() ([]models.HistoryPoint, error) {
	return s.getHistory(fmt.Sprintf("%s:spo2:history", s.prefix))
}

// getHistory lê um conjunto ordenado de histórico como pontos valor/timestamp
func (s *Service) getHistory(key string) ([]models.HistoryPoint, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	dataCmd := s.client.ZRangeWithScores(s.ctx, key, 0, -1)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter histórico: %w", dataCmd.Err())
	}

	results := dataCmd.Val()
	history := make([]models.HistoryPoint, 0, len(results))

	for _, item := range results {
		member, ok := item.Member.(string)
		if !ok {
			continue
		}
		val, err := strconv.ParseFloat(member, 64)
		if err != nil {
			continue
		}

		history = append(history, models.HistoryPoint{
			Value:     val,
			Timestamp: time.Unix(0, int64(item.Score)*int64(time.Millisecond)),
		})
	}

	return history, nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
