// Package hrcalc implementa a rotina de estimativa de BPM e SpO2 a partir de
// uma janela de amostras dos canais infravermelho e vermelho. O restante do
// sistema a trata como função pura atrás da interface sensor.Estimator.
package hrcalc

import (
	"vitals_go/pkg/utils"
)

const (
	// WindowSize é o número exato de amostras por canal esperado pela rotina
	WindowSize = 100

	// Taxa efetiva de amostragem (100 sps com média de 4 no FIFO = 25 sps);
	// a janela cobre 4 segundos de sinal
	sampleFreq = 25.0

	// Distância mínima entre picos (4 amostras = 375 BPM teóricos)
	minPeakDistance = 4

	// Amplitude mínima do sinal AC para considerar um pico real
	minPeakHeight = 30.0

	// Faixa de BPM considerada computável pela rotina (o filtro fisiológico
	// do monitor é mais estrito)
	bpmFloor = 10.0
	bpmCeil  = 250.0
)

// Estimate calcula (bpm, bpmValid, spo2, spo2Valid) sobre duas janelas de
// exatamente WindowSize amostras. Janelas de tamanho errado produzem
// estimativas inválidas, nunca pânico.
func Estimate(ir, red []uint32) (bpm float64, bpmValid bool, spo2 float64, spo2Valid bool) {
	if len(ir) != WindowSize || len(red) != WindowSize {
		return 0, false, 0, false
	}

	irF := utils.ToFloat64(ir)
	redF := utils.ToFloat64(red)

	bpm, bpmValid = estimateBPM(irF)
	spo2, spo2Valid = estimateSpO2(irF, redF)
	return bpm, bpmValid, spo2, spo2Valid
}

// estimateBPM detecta picos no componente AC do canal infravermelho e
// converte o intervalo médio entre picos em batimentos por minuto
func estimateBPM(ir []float64) (float64, bool) {
	ac := detrend(ir)
	sm := smooth(ac, 4)
	peaks := findPeaks(sm)

	if len(peaks) < 2 {
		return 0, false
	}

	// Intervalo médio entre o primeiro e o último pico
	span := float64(peaks[len(peaks)-1] - peaks[0])
	avgInterval := span / float64(len(peaks)-1)
	if avgInterval <= 0 {
		return 0, false
	}

	bpm := 60.0 * sampleFreq / avgInterval
	if bpm < bpmFloor || bpm > bpmCeil {
		return 0, false
	}
	return bpm, true
}

// estimateSpO2 calcula a razão R entre a perfusão (AC/DC) dos dois canais e
// a converte em saturação pela aproximação linear SpO2 = 104 - 17R
func estimateSpO2(ir, red []float64) (float64, bool) {
	dcIR := utils.Mean(ir)
	dcRed := utils.Mean(red)
	if dcIR <= 0 || dcRed <= 0 {
		return 0, false
	}

	minIR, maxIR := utils.MinMax(ir)
	minRed, maxRed := utils.MinMax(red)
	acIR := maxIR - minIR
	acRed := maxRed - minRed
	if acIR <= 0 || acRed <= 0 {
		return 0, false
	}

	r := (acRed / dcRed) / (acIR / dcIR)
	spo2 := 104.0 - 17.0*r
	if spo2 <= 0 || spo2 > 100 {
		return 0, false
	}
	return spo2, true
}

// detrend remove o componente DC (média) do sinal
func detrend(signal []float64) []float64 {
	mean := utils.Mean(signal)
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v - mean
	}
	return out
}

// smooth aplica uma média móvel de largura width sobre o sinal
func smooth(signal []float64, width int) []float64 {
	if width <= 1 {
		return signal
	}

	out := make([]float64, len(signal))
	sum := 0.0
	for i, v := range signal {
		sum += v
		if i >= width {
			sum -= signal[i-width]
		}
		n := i + 1
		if n > width {
			n = width
		}
		out[i] = sum / float64(n)
	}
	return out
}

// findPeaks retorna os índices dos máximos locais acima do limiar adaptativo,
// respeitando a distância mínima entre picos
func findPeaks(signal []float64) []int {
	if len(signal) < 3 {
		return nil
	}

	_, max := utils.MinMax(signal)
	threshold := max * 0.5
	if threshold < minPeakHeight {
		threshold = minPeakHeight
	}

	var peaks []int
	last := -minPeakDistance
	for i := 1; i < len(signal)-1; i++ {
		if signal[i] <= threshold {
			continue
		}
		if signal[i] > signal[i-1] && signal[i] >= signal[i+1] {
			if i-last >= minPeakDistance {
				peaks = append(peaks, i)
				last = i
			}
		}
	}
	return peaks
}
