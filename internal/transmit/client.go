package transmit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
	"vitals_go/pkg/logger"
)

const (
	// Caminho do endpoint de ingestão de leituras no coletor
	vitalsPath = "/api/device/vitals"

	// Caminho de verificação de saúde do coletor
	healthPath = "/health"

	// Tempo limite para envio de leituras
	sendTimeout = 10 * time.Second

	// Tempo limite para o teste de conectividade
	healthTimeout = 5 * time.Second
)

// Client envia leituras assinadas para o backend coletor via HTTP
type Client struct {
	http   *resty.Client
	config config.BackendConfig
}

// NewClient cria um novo cliente HTTP para o backend coletor
func NewClient(cfg config.BackendConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(sendTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		config: cfg,
	}
}

// Signature calcula a assinatura HMAC-SHA256 em base64 sobre a mensagem
// canônica "<timestamp>.<corpo JSON>". O coletor recomputa a mesma
// assinatura com o segredo compartilhado do dispositivo.
func Signature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SendVitals envia uma leitura de sinais vitais assinada para o coletor
func (c *Client) SendVitals(reading models.VitalsReading) error {
	body, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("erro ao serializar leitura: %w", err)
	}

	// Serializar o corpo uma única vez: a assinatura cobre exatamente os
	// bytes enviados
	timestamp := strconv.FormatInt(reading.Timestamp, 10)
	signature := Signature(c.config.DeviceSecret, timestamp, body)

	resp, err := c.http.R().
		SetHeader("X-Device-Id", c.config.DeviceID).
		SetHeader("X-Timestamp", timestamp).
		SetHeader("X-Signature", signature).
		SetBody(body).
		Post(vitalsPath)
	if err != nil {
		return fmt.Errorf("erro ao enviar leitura para o coletor: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("coletor respondeu com status %d: %s",
			resp.StatusCode(), resp.String())
	}

	logger.Debugf("Leitura enviada ao coletor: hr=%d spo2=%d temp=%.1f",
		reading.HeartRate, reading.SpO2, reading.Temperature)
	return nil
}

// TestConnection verifica se o coletor está acessível
func (c *Client) TestConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		Get(healthPath)
	if err != nil {
		return fmt.Errorf("erro ao conectar ao coletor: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("coletor respondeu ao health check com status %d", resp.StatusCode())
	}

	return nil
}
