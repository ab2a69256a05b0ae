package models

import "time"

// VitalSigns armazena os sinais vitais publicados pelo monitor
type VitalSigns struct {
	BPM            float64   `json:"bpm"`
	SpO2           float64   `json:"spo2"`
	Temperature    float64   `json:"temperature"`
	FingerDetected bool      `json:"fingerDetected"`
	Timestamp      time.Time `json:"timestamp"`
}

// VitalsReading é o payload enviado ao backend coletor.
// A ordem dos campos define a ordem das chaves no JSON canônico assinado.
type VitalsReading struct {
	HeartRate   int     `json:"heartRate"`
	SpO2        int     `json:"spo2"`
	Temperature float64 `json:"temperature"`
	Timestamp   int64   `json:"timestamp"`
}

// MonitorStatus representa o status atual do monitor de sinais vitais
type MonitorStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastError  string    `json:"lastError,omitempty"`
	ErrorCount int       `json:"errorCount,omitempty"`
}

// HistoryPoint representa um ponto de histórico para BPM ou SpO2
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
