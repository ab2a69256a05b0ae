package sensor

import (
	"math"

	"vitals_go/pkg/utils"
)

// Constantes de plausibilidade fisiológica do filtro de vitais
const (
	// Faixa humana normal de frequência cardíaca (inclusiva)
	BPMMin = 40.0
	BPMMax = 180.0

	// Desvio máximo aceito em relação à média recente
	BPMMaxDrift = 30.0

	// Faixa aceita de saturação de oxigênio (inclusiva)
	SpO2Min = 85.0
	SpO2Max = 100.0

	// Número de leituras de BPM usadas na suavização
	bpmHistorySize = 8
)

// Filter aplica os portões de plausibilidade e suavização sobre as
// estimativas brutas. Não é thread-safe: pertence ao loop de aquisição.
type Filter struct {
	bpmHistory []float64
}

// NewFilter cria um filtro de vitais vazio
func NewFilter() *Filter {
	return &Filter{
		bpmHistory: make([]float64, 0, bpmHistorySize),
	}
}

// AcceptBPM aplica o pipeline de aceitação de BPM: flag de validade do
// estimador, faixa de plausibilidade e portão de outlier contra a média
// recente. Ao aceitar, registra o valor no histórico e retorna a média
// suavizada. Valores rejeitados são descartados em silêncio.
func (f *Filter) AcceptBPM(bpm float64, valid bool) (float64, bool) {
	if !valid {
		return 0, false
	}
	if bpm < BPMMin || bpm > BPMMax {
		return 0, false
	}
	if len(f.bpmHistory) > 0 && math.Abs(bpm-utils.Mean(f.bpmHistory)) >= BPMMaxDrift {
		return 0, false
	}

	f.bpmHistory = append(f.bpmHistory, bpm)
	for len(f.bpmHistory) > bpmHistorySize {
		f.bpmHistory = f.bpmHistory[1:]
	}

	return utils.Mean(f.bpmHistory), true
}

// AcceptSpO2 aceita uma estimativa de SpO2 válida dentro da faixa segura.
// SpO2 aceito é publicado sem suavização; rejeição mantém o valor anterior.
func (f *Filter) AcceptSpO2(spo2 float64, valid bool) (float64, bool) {
	if !valid {
		return 0, false
	}
	if spo2 < SpO2Min || spo2 > SpO2Max {
		return 0, false
	}
	return spo2, true
}

// HistoryLen retorna o tamanho atual do histórico de BPM
func (f *Filter) HistoryLen() int {
	return len(f.bpmHistory)
}

// Reset limpa o histórico de BPM. Chamado no stop e na perda de dedo, para
// evitar que uma média antiga enviese a primeira leitura após recolocação.
func (f *Filter) Reset() {
	f.bpmHistory = f.bpmHistory[:0]
}
