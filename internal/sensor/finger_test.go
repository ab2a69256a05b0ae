package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// pulsatile gera um sinal quadrado em torno de base com a amplitude dada,
// o suficiente para passar no critério de desvio padrão
func pulsatile(base uint32, amplitude uint32, n int) []uint32 {
	samples := make([]uint32, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = base + amplitude
		} else {
			samples[i] = base - amplitude
		}
	}
	return samples
}

// flat gera um sinal constante (desvio padrão zero)
func flat(value uint32, n int) []uint32 {
	samples := make([]uint32, n)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func TestDetectFingerPresent(t *testing.T) {
	ir := pulsatile(80000, 500, 100)
	red := pulsatile(70000, 400, 100)

	assert.True(t, DetectFinger(ir, red))
}

func TestDetectFingerDarkSensor(t *testing.T) {
	// Sensor descoberto: nível baixo nos dois canais
	ir := pulsatile(1000, 200, 100)
	red := pulsatile(800, 200, 100)

	assert.False(t, DetectFinger(ir, red))
}

func TestDetectFingerFlatSaturation(t *testing.T) {
	// Nível alto mas sem variação pulsátil: objeto estático, não um dedo
	ir := flat(90000, 100)
	red := flat(85000, 100)

	assert.False(t, DetectFinger(ir, red))
}

func TestDetectFingerSingleChannelSuffices(t *testing.T) {
	// Basta um canal satisfazer os dois limiares
	ir := pulsatile(80000, 500, 100)
	red := flat(1000, 100)

	assert.True(t, DetectFinger(ir, red))
	assert.True(t, DetectFinger(red, ir))
}

func TestDetectFingerThresholdBoundary(t *testing.T) {
	// Exatamente nos limiares reprova: os critérios são estritos
	ir := flat(uint32(FingerMeanThreshold), 100)
	assert.False(t, DetectFinger(ir, ir))
}
