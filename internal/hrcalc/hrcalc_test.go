package hrcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWave gera um sinal senoidal sintético amostrado a 25 sps, imitando a
// componente pulsátil de um canal PPG com dedo presente
func sineWave(base, amplitude, freqHz float64, n int) []uint32 {
	samples := make([]uint32, n)
	for i := range samples {
		t := float64(i) / 25.0
		samples[i] = uint32(base + amplitude*math.Sin(2*math.Pi*freqHz*t))
	}
	return samples
}

func flatSignal(value uint32, n int) []uint32 {
	samples := make([]uint32, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestEstimateBPMFromSyntheticPulse(t *testing.T) {
	// 1.2 Hz = 72 BPM
	ir := sineWave(60000, 2000, 1.2, WindowSize)
	red := sineWave(50000, 1500, 1.2, WindowSize)

	bpm, bpmValid, _, _ := Estimate(ir, red)
	require.True(t, bpmValid)
	assert.InDelta(t, 72.0, bpm, 8.0)
}

func TestEstimateBPMSlowPulse(t *testing.T) {
	// 1.0 Hz = 60 BPM, período de exatamente 25 amostras
	ir := sineWave(60000, 2000, 1.0, WindowSize)
	red := sineWave(50000, 1500, 1.0, WindowSize)

	bpm, bpmValid, _, _ := Estimate(ir, red)
	require.True(t, bpmValid)
	assert.InDelta(t, 60.0, bpm, 6.0)
}

func TestEstimateSpO2Ratio(t *testing.T) {
	// Perfusão red/ir com razão R = (3000/50000)/(4000/60000) = 0.9,
	// logo SpO2 = 104 - 17*0.9 = 88.7
	ir := sineWave(60000, 2000, 1.2, WindowSize)
	red := sineWave(50000, 1500, 1.2, WindowSize)

	_, _, spo2, spo2Valid := Estimate(ir, red)
	require.True(t, spo2Valid)
	assert.InDelta(t, 88.7, spo2, 1.0)
}

func TestEstimateRejectsWrongWindowSize(t *testing.T) {
	ir := sineWave(60000, 2000, 1.2, WindowSize-1)
	red := sineWave(50000, 1500, 1.2, WindowSize)

	bpm, bpmValid, spo2, spo2Valid := Estimate(ir, red)
	assert.False(t, bpmValid)
	assert.False(t, spo2Valid)
	assert.Zero(t, bpm)
	assert.Zero(t, spo2)
}

func TestEstimateFlatSignalInvalid(t *testing.T) {
	// Sem componente AC não há picos nem razão de perfusão
	ir := flatSignal(60000, WindowSize)
	red := flatSignal(50000, WindowSize)

	_, bpmValid, _, spo2Valid := Estimate(ir, red)
	assert.False(t, bpmValid)
	assert.False(t, spo2Valid)
}

func TestEstimateLowAmplitudeNoise(t *testing.T) {
	// Amplitude abaixo do limiar de pico: sensor coberto por objeto
	// estático, não um dedo pulsando
	ir := sineWave(60000, 10, 1.2, WindowSize)
	red := sineWave(50000, 8, 1.2, WindowSize)

	_, bpmValid, _, _ := Estimate(ir, red)
	assert.False(t, bpmValid)
}
