package sensor

// Source define o contrato com o sensor físico de pulso-oximetria.
// A implementação de referência é o driver MAX30102 deste pacote; os testes
// usam fontes sintéticas.
type Source interface {
	// PendingCount retorna quantas amostras estão disponíveis no FIFO do
	// sensor. ReadPair só é válido enquanto PendingCount() > 0.
	PendingCount() int

	// ReadPair lê uma amostra (red, ir) do FIFO
	ReadPair() (red, ir uint32, err error)

	// ReadTemperature lê a temperatura do die do sensor em °C.
	// Pode falhar de forma transitória.
	ReadTemperature() (float64, error)

	// Shutdown coloca o sensor em modo de baixo consumo. Idempotente.
	Shutdown() error
}

// Estimator define o contrato com a rotina de estimativa de BPM/SpO2.
// É uma função pura sobre duas janelas de mesmo tamanho; o monitor a trata
// como caixa-preta.
type Estimator interface {
	Estimate(ir, red []uint32) (bpm float64, bpmValid bool, spo2 float64, spo2Valid bool)
}

// EstimatorFunc adapta uma função pura para a interface Estimator
type EstimatorFunc func(ir, red []uint32) (float64, bool, float64, bool)

// Estimate implementa a interface Estimator
func (f EstimatorFunc) Estimate(ir, red []uint32) (float64, bool, float64, bool) {
	return f(ir, red)
}
