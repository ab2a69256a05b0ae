package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals_go/internal/config"
	"vitals_go/internal/models"
	"vitals_go/internal/sensor"
)

// fakeSource é uma fonte sintética de amostras para os testes do monitor
type fakeSource struct {
	red       []uint32
	ir        []uint32
	readErr   error
	temp      float64
	tempErr   error
	tempReads int
	shutdowns int
}

func (f *fakeSource) PendingCount() int {
	if f.readErr != nil {
		return 1
	}
	return len(f.ir)
}

func (f *fakeSource) ReadPair() (red, ir uint32, err error) {
	if f.readErr != nil {
		return 0, 0, f.readErr
	}
	red, ir = f.red[0], f.ir[0]
	f.red, f.ir = f.red[1:], f.ir[1:]
	return red, ir, nil
}

func (f *fakeSource) ReadTemperature() (float64, error) {
	f.tempReads++
	if f.tempErr != nil {
		return 0, f.tempErr
	}
	return f.temp, nil
}

func (f *fakeSource) Shutdown() error {
	f.shutdowns++
	return nil
}

// enqueue adiciona n amostras idênticas aos dois canais
func (f *fakeSource) enqueue(red, ir uint32, n int) {
	for i := 0; i < n; i++ {
		f.red = append(f.red, red)
		f.ir = append(f.ir, ir)
	}
}

// enqueuePulsatile adiciona n amostras alternando em torno da base, com
// nível e variação suficientes para a detecção de dedo
func (f *fakeSource) enqueuePulsatile(base, amplitude uint32, n int) {
	for i := 0; i < n; i++ {
		v := base + amplitude
		if i%2 == 1 {
			v = base - amplitude
		}
		f.red = append(f.red, v)
		f.ir = append(f.ir, v)
	}
}

// fixedEstimator devolve sempre a mesma estimativa e registra as chamadas
type fixedEstimator struct {
	bpm       float64
	bpmValid  bool
	spo2      float64
	spo2Valid bool
	calls     int
}

func (e *fixedEstimator) Estimate(ir, red []uint32) (float64, bool, float64, bool) {
	e.calls++
	return e.bpm, e.bpmValid, e.spo2, e.spo2Valid
}

func testConfig() config.SensorConfig {
	return config.SensorConfig{
		SampleRate:           time.Millisecond,
		WindowSize:           100,
		TempInterval:         time.Hour, // leitura única nos testes
		StopTimeout:          time.Second,
		MaxConsecutiveErrors: 3,
	}
}

func newTestService(t *testing.T, src sensor.Source, est sensor.Estimator) *Service {
	t.Helper()
	svc, err := NewService(testConfig(), src, est, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestNoEstimateBeforePartialWindow(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	// Uma amostra a menos que a janela: nenhum estimador deve rodar
	src.enqueuePulsatile(80000, 500, 99)
	svc.processTick()

	vitals := svc.GetVitals()
	assert.Zero(t, vitals.BPM)
	assert.Zero(t, vitals.SpO2)
	assert.False(t, vitals.FingerDetected)
	assert.Equal(t, 0, est.calls)

	// A temperatura é lida mesmo sem janela cheia
	assert.InDelta(t, 36.5, vitals.Temperature, 0.001)
}

func TestFullWindowPublishesVitals(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()

	vitals := svc.GetVitals()
	require.Equal(t, 1, est.calls)
	assert.True(t, vitals.FingerDetected)
	assert.InDelta(t, 72.0, vitals.BPM, 0.001)
	assert.InDelta(t, 97.0, vitals.SpO2, 0.001)
	assert.InDelta(t, 36.5, vitals.Temperature, 0.001)
	assert.False(t, vitals.Timestamp.IsZero())
}

func TestRejectedEstimateKeepsLastReading(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()
	require.InDelta(t, 72.0, svc.GetVitals().BPM, 0.001)

	// Estimativa seguinte inválida: a última leitura aceita permanece
	est.bpmValid = false
	est.spo2Valid = false
	src.enqueuePulsatile(80000, 500, 10)
	svc.processTick()

	vitals := svc.GetVitals()
	assert.InDelta(t, 72.0, vitals.BPM, 0.001)
	assert.InDelta(t, 97.0, vitals.SpO2, 0.001)
	assert.True(t, vitals.FingerDetected)
}

func TestFingerRemovalZeroesReadings(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()
	require.True(t, svc.GetVitals().FingerDetected)

	// Substituir a janela inteira por leituras escuras (dedo removido)
	src.enqueue(1000, 1000, 100)
	svc.processTick()

	vitals := svc.GetVitals()
	assert.False(t, vitals.FingerDetected)
	assert.Zero(t, vitals.BPM)
	assert.Zero(t, vitals.SpO2)

	// A temperatura do die permanece válida
	assert.InDelta(t, 36.5, vitals.Temperature, 0.001)

	// O histórico de suavização é descartado na remoção do dedo
	assert.Equal(t, 0, svc.filter.HistoryLen())
}

func TestSmoothingAfterFingerReplacement(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 70, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()

	src.enqueue(1000, 1000, 100)
	svc.processTick()

	// Após recolocação, um BPM bem diferente do anterior é aceito como
	// primeira leitura (o portão de outlier não compara com a sessão velha)
	est.bpm = 130
	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()

	assert.InDelta(t, 130.0, svc.GetVitals().BPM, 0.001)
}

func TestTemperatureReadInterval(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{}
	svc := newTestService(t, src, est)

	src.enqueue(1000, 1000, 1)
	svc.processTick()
	require.Equal(t, 1, src.tempReads)

	// Dentro do intervalo não há nova leitura de temperatura
	src.enqueue(1000, 1000, 1)
	svc.processTick()
	assert.Equal(t, 1, src.tempReads)
}

func TestTemperatureFailureKeepsLastValue(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{}
	svc := newTestService(t, src, est)

	src.enqueue(1000, 1000, 1)
	svc.processTick()
	require.InDelta(t, 36.5, svc.GetVitals().Temperature, 0.001)

	// Forçar nova leitura com falha: o valor anterior permanece
	src.tempErr = errors.New("leitura de temperatura falhou")
	svc.lastTempRead = time.Now().Add(-2 * time.Hour)
	src.enqueue(1000, 1000, 1)
	svc.processTick()

	assert.InDelta(t, 36.5, svc.GetVitals().Temperature, 0.001)
	assert.Equal(t, 2, src.tempReads)
}

func TestSensorErrorUpdatesStatus(t *testing.T) {
	src := &fakeSource{readErr: errors.New("falha no barramento i2c")}
	est := &fixedEstimator{}
	svc := newTestService(t, src, est)

	for i := 0; i < testConfig().MaxConsecutiveErrors+1; i++ {
		svc.processTick()
	}

	status := svc.GetStatus()
	assert.Equal(t, "falha_sensor", status.Status)
	assert.NotEmpty(t, status.LastError)
	assert.Equal(t, testConfig().MaxConsecutiveErrors+1, status.ErrorCount)
}

func TestStopZeroesPublishedAndShutsDownSensor(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	src.enqueuePulsatile(80000, 500, 100)

	require.NoError(t, svc.Start())
	require.True(t, svc.IsRunning())

	// Dar tempo ao loop de aquisição para drenar a fonte
	time.Sleep(50 * time.Millisecond)

	svc.Stop()

	assert.False(t, svc.IsRunning())
	assert.Equal(t, 1, src.shutdowns)

	vitals := svc.GetVitals()
	assert.Zero(t, vitals.BPM)
	assert.Zero(t, vitals.SpO2)
	assert.False(t, vitals.FingerDetected)
}

func TestStartIsIdempotent(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	svc := newTestService(t, src, &fixedEstimator{})

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())

	svc.Stop()
	svc.Stop()
	assert.Equal(t, 1, src.shutdowns)
}

func TestRestartAfterStop(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	require.NoError(t, svc.Start())
	time.Sleep(20 * time.Millisecond)
	svc.Stop()
	require.Equal(t, 1, src.shutdowns)

	// Uma nova sessão de aquisição após a parada volta a publicar leituras
	src.enqueuePulsatile(80000, 500, 100)
	require.NoError(t, svc.Start())
	require.True(t, svc.IsRunning())

	require.Eventually(t, func() bool {
		return svc.GetVitals().BPM > 0
	}, time.Second, 5*time.Millisecond)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	assert.Equal(t, 2, src.shutdowns)
}

func TestStopClearsWindowAndSmoothingHistory(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	// Preencher a janela e o histórico de suavização antes de iniciar o loop
	src.enqueuePulsatile(80000, 500, 100)
	svc.processTick()
	require.NotZero(t, svc.filter.HistoryLen())
	require.True(t, svc.window.IsFull())

	require.NoError(t, svc.Start())
	time.Sleep(20 * time.Millisecond)
	svc.Stop()

	assert.Equal(t, 0, svc.filter.HistoryLen())
	assert.Equal(t, 0, svc.window.Len())
}

func TestStopZeroesBeforeAcquisitionLoopExits(t *testing.T) {
	src := &fakeSource{temp: 36.5}
	est := &fixedEstimator{bpm: 72, bpmValid: true, spo2: 97, spo2Valid: true}
	svc := newTestService(t, src, est)

	svc.publishVitals(models.VitalSigns{
		BPM:            72,
		SpO2:           97,
		Temperature:    36.5,
		FingerDetected: true,
		Timestamp:      time.Now(),
	})

	// Simular uma sessão cujo loop de aquisição demora a encerrar: o canal
	// done só é fechado pelo teste, depois de observar o estado zerado
	done := make(chan struct{})
	svc.ctx, svc.cancel = context.WithCancel(context.Background())
	svc.mutex.Lock()
	svc.running = true
	svc.done = done
	svc.mutex.Unlock()

	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()

	// As leituras publicadas zeram no pedido de parada, antes do loop encerrar
	require.Eventually(t, func() bool {
		return svc.GetVitals().BPM == 0
	}, 300*time.Millisecond, 5*time.Millisecond)
	assert.InDelta(t, 36.5, svc.GetVitals().Temperature, 0.001)

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop não retornou após o encerramento do loop")
	}
}
