package sensor

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"vitals_go/pkg/logger"
)

// Registradores do MAX30102
const (
	regIntStat1  = 0x00
	regIntEna1   = 0x02
	regFIFOWrPtr = 0x04
	regOvfCount  = 0x05
	regFIFORdPtr = 0x06
	regFIFOData  = 0x07
	regFIFOCfg   = 0x08
	regModeCfg   = 0x09
	regSpO2Cfg   = 0x0A
	regLed1PA    = 0x0C
	regLed2PA    = 0x0D
	regTempInt   = 0x1F
	regTempFrac  = 0x20
	regTempCfg   = 0x21
	regPartID    = 0xFF
)

// Valores de configuração do MAX30102
const (
	defaultAddr = 0x57
	partID      = 0x15

	modeSpO2     = 0b011
	modeReset    = 0b0100_0000
	modeShutdown = 0b1000_0000

	// SpO2Cfg: faixa ADC 4096nA, 100 amostras/s, pulso de 411us
	spo2Config = 0b0010_0111

	// Amplitude dos LEDs (7.2mA)
	ledAmplitude = 0x24

	tempEnable = 0b0000_0001

	newFIFOData = 1 << 6

	fifoDepth = 32
)

// MAX30102 implementa a interface Source sobre o sensor físico via I2C
type MAX30102 struct {
	dev      *i2c.Dev
	bus      i2c.BusCloser
	mutex    sync.Mutex
	shutdown bool
}

// NewMAX30102 abre o barramento I2C, confere a identidade do sensor e o
// configura em modo SpO2 (dois canais, 100 amostras/s).
// busName pode indicar o barramento exato ("/dev/i2c-1", "I2C1", "1");
// vazio usa o primeiro disponível. addr 0 usa o endereço padrão 0x57.
func NewMAX30102(busName string, addr uint16) (*MAX30102, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("erro ao inicializar host I2C: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir barramento I2C: %w", err)
	}

	if addr == 0 {
		addr = defaultAddr
	}

	d := &MAX30102{
		dev: &i2c.Dev{Addr: addr, Bus: bus},
		bus: bus,
	}

	part, err := d.readReg(regPartID)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("erro ao ler part ID do sensor: %w", err)
	}
	if part != partID {
		bus.Close()
		return nil, fmt.Errorf("sensor em 0x%02X não é um MAX30102 (part ID 0x%02X)", addr, part)
	}

	if err := d.configure(); err != nil {
		bus.Close()
		return nil, err
	}

	logger.Infof("Sensor MAX30102 inicializado (endereço 0x%02X, modo SpO2, 100 sps)", addr)
	return d, nil
}

// configure reseta o sensor e aplica a configuração de operação
func (d *MAX30102) configure() error {
	// Reset completo para estado de power-on
	if err := d.writeReg(regModeCfg, modeReset); err != nil {
		return fmt.Errorf("erro ao resetar o sensor: %w", err)
	}
	if err := d.waitClear(regModeCfg, modeReset); err != nil {
		return fmt.Errorf("erro ao aguardar reset do sensor: %w", err)
	}

	steps := []struct {
		reg  byte
		data byte
	}{
		{regIntEna1, newFIFOData},
		{regFIFOWrPtr, 0},
		{regOvfCount, 0},
		{regFIFORdPtr, 0},
		{regFIFOCfg, 0b0100_0000}, // média de 4 amostras, sem rollover
		{regModeCfg, modeSpO2},
		{regSpO2Cfg, spo2Config},
		{regLed1PA, ledAmplitude},
		{regLed2PA, ledAmplitude},
	}
	for _, s := range steps {
		if err := d.writeReg(s.reg, s.data); err != nil {
			return fmt.Errorf("erro ao configurar registrador 0x%02X: %w", s.reg, err)
		}
	}

	return nil
}

// PendingCount retorna quantas amostras aguardam no FIFO do sensor
func (d *MAX30102) PendingCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.shutdown {
		return 0
	}

	wr, err := d.readReg(regFIFOWrPtr)
	if err != nil {
		return 0
	}
	rd, err := d.readReg(regFIFORdPtr)
	if err != nil {
		return 0
	}

	// Ponteiros iguais indicam FIFO vazio (o overflow é drenado a cada tick,
	// antes de dar a volta completa)
	return (int(wr) + fifoDepth - int(rd)) % fifoDepth
}

// ReadPair lê uma amostra (red, ir) do FIFO. Cada canal ocupa 3 bytes com
// 18 bits úteis.
func (d *MAX30102) ReadPair() (red, ir uint32, err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	const msbMask = 0b0000_0011

	b := make([]byte, 6)
	if err := d.dev.Tx([]byte{regFIFOData}, b); err != nil {
		return 0, 0, fmt.Errorf("erro ao ler FIFO do sensor: %w", err)
	}

	red = uint32(b[0]&msbMask)<<16 | uint32(b[1])<<8 | uint32(b[2])
	ir = uint32(b[3]&msbMask)<<16 | uint32(b[4])<<8 | uint32(b[5])
	return red, ir, nil
}

// ReadTemperature lê a temperatura do die em °C (resolução de 0.0625°C).
// A conversão leva ~29ms; a espera é limitada para nunca travar o loop de
// aquisição além de ~100ms.
func (d *MAX30102) ReadTemperature() (float64, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.shutdown {
		return 0, fmt.Errorf("sensor desligado")
	}

	if err := d.writeReg(regTempCfg, tempEnable); err != nil {
		return 0, fmt.Errorf("erro ao iniciar conversão de temperatura: %w", err)
	}

	// Aguardar o fim da conversão (bit TEMP_EN limpa automaticamente)
	ready := false
	for i := 0; i < 100; i++ {
		state, err := d.readReg(regTempCfg)
		if err != nil {
			return 0, fmt.Errorf("erro ao consultar conversão de temperatura: %w", err)
		}
		if state&tempEnable == 0 {
			ready = true
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !ready {
		return 0, fmt.Errorf("timeout na conversão de temperatura")
	}

	i, err := d.readReg(regTempInt)
	if err != nil {
		return 0, fmt.Errorf("erro ao ler parte inteira da temperatura: %w", err)
	}
	f, err := d.readReg(regTempFrac)
	if err != nil {
		return 0, fmt.Errorf("erro ao ler parte fracionária da temperatura: %w", err)
	}

	return float64(int8(i)) + float64(f)*0.0625, nil
}

// Shutdown coloca o sensor em modo de baixo consumo e fecha o barramento.
// Idempotente e terminal.
func (d *MAX30102) Shutdown() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.shutdown {
		return nil
	}
	d.shutdown = true

	if err := d.writeReg(regModeCfg, modeShutdown); err != nil {
		d.bus.Close()
		return fmt.Errorf("erro ao desligar o sensor: %w", err)
	}
	if err := d.bus.Close(); err != nil {
		return fmt.Errorf("erro ao fechar barramento I2C: %w", err)
	}

	logger.Info("Sensor MAX30102 desligado")
	return nil
}

// readReg lê um byte de um registrador
func (d *MAX30102) readReg(reg byte) (byte, error) {
	b := make([]byte, 1)
	if err := d.dev.Tx([]byte{reg}, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

// writeReg escreve um byte em um registrador
func (d *MAX30102) writeReg(reg, data byte) error {
	_, err := d.dev.Write([]byte{reg, data})
	return err
}

// waitClear aguarda um bit de um registrador limpar
func (d *MAX30102) waitClear(reg, flag byte) error {
	for i := 0; i < 100; i++ {
		state, err := d.readReg(reg)
		if err != nil {
			return err
		}
		if state&flag == 0 {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return fmt.Errorf("bit 0x%02X do registrador 0x%02X não limpou", flag, reg)
}
