package sensor

import "vitals_go/pkg/utils"

// Limiares para detecção de dedo no sensor. Um dedo produz um nível DC alto
// (absorção da luz) com variação pulsátil; uma leitura plana saturada ou
// escura reprova nos dois critérios.
const (
	FingerMeanThreshold   = 50000.0
	FingerStdDevThreshold = 100.0
)

// DetectFinger classifica presença de dedo a partir das estatísticas da
// janela. Basta um dos canais satisfazer os limiares, pois os ganhos dos
// canais podem diferir. Sem histerese: a decisão é recalculada a cada janela
// cheia.
func DetectFinger(ir, red []uint32) bool {
	return channelHasFinger(ir) || channelHasFinger(red)
}

// channelHasFinger verifica os limiares de média e desvio padrão de um canal
func channelHasFinger(samples []uint32) bool {
	values := utils.ToFloat64(samples)
	return utils.Mean(values) > FingerMeanThreshold && utils.StdDev(values) > FingerStdDevThreshold
}
