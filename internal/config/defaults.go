package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Sensor: SensorConfig{
			Bus:                  "",
			Address:              0x57,
			SampleRate:           10 * time.Millisecond,
			WindowSize:           100,
			TempInterval:         2 * time.Second,
			StopTimeout:          2 * time.Second,
			MaxConsecutiveErrors: 5,
			PrintRaw:             false,
			PrintResult:          true,
		},
		Backend: BackendConfig{
			BaseURL:         "http://192.168.0.253:8080",
			DeviceID:        "RPI-SENSOR-001",
			DeviceSecret:    "CHANGE_ME_DEVICE_SECRET",
			ReadingInterval: 2 * time.Second,
			Enabled:         true,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "vitals",
			Enabled:  true,
		},
	}
}
