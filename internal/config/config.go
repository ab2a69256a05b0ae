package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server  ServerConfig  `json:"server"`
	Sensor  SensorConfig  `json:"sensor"`
	Backend BackendConfig `json:"backend"`
	Redis   RedisConfig   `json:"redis"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket local
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// SensorConfig contém configurações do sensor MAX30102
type SensorConfig struct {
	Bus                  string        `json:"bus"`     // Barramento I2C ("" = primeiro disponível)
	Address              uint16        `json:"address"` // Endereço I2C (0 = padrão 0x57)
	SampleRate           time.Duration `json:"sampleRate"`
	WindowSize           int           `json:"windowSize"`
	TempInterval         time.Duration `json:"tempInterval"`
	StopTimeout          time.Duration `json:"stopTimeout"`
	MaxConsecutiveErrors int           `json:"maxConsecutiveErrors"`
	PrintRaw             bool          `json:"printRaw"`
	PrintResult          bool          `json:"printResult"`
}

// BackendConfig contém configurações do backend coletor remoto
type BackendConfig struct {
	BaseURL         string        `json:"baseUrl"`
	DeviceID        string        `json:"deviceId"`
	DeviceSecret    string        `json:"deviceSecret"` // Deve coincidir com a configuração do coletor
	ReadingInterval time.Duration `json:"readingInterval"`
	Enabled         bool          `json:"enabled"`
}

// RedisConfig contém configurações do Redis local
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		config.Backend.BaseURL = v
	}
	if v := os.Getenv("DEVICE_ID"); v != "" {
		config.Backend.DeviceID = v
	}
	if v := os.Getenv("DEVICE_SECRET"); v != "" {
		config.Backend.DeviceSecret = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		config.Redis.Host = v
	}
}
