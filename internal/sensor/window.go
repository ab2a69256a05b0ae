package sensor

// DefaultWindowSize é o tamanho padrão da janela de sinal exigido pelo estimador
const DefaultWindowSize = 100

// Window é um buffer FIFO limitado com as amostras mais recentes do sensor.
// Não é thread-safe: pertence exclusivamente ao loop de aquisição.
type Window struct {
	ir   []uint32
	red  []uint32
	size int
}

// NewWindow cria uma janela com capacidade para size amostras
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{
		ir:   make([]uint32, 0, size),
		red:  make([]uint32, 0, size),
		size: size,
	}
}

// Push adiciona uma amostra, descartando a mais antiga se a janela estiver cheia
func (w *Window) Push(red, ir uint32) {
	if len(w.ir) == w.size {
		w.ir = w.ir[1:]
		w.red = w.red[1:]
	}
	w.ir = append(w.ir, ir)
	w.red = append(w.red, red)
}

// IsFull verifica se a janela atingiu a capacidade
func (w *Window) IsFull() bool {
	return len(w.ir) == w.size
}

// Len retorna o número de amostras na janela
func (w *Window) Len() int {
	return len(w.ir)
}

// Size retorna a capacidade da janela
func (w *Window) Size() int {
	return w.size
}

// Snapshot retorna cópias do conteúdo atual, da amostra mais antiga para a
// mais recente
func (w *Window) Snapshot() (ir, red []uint32) {
	ir = make([]uint32, len(w.ir))
	red = make([]uint32, len(w.red))
	copy(ir, w.ir)
	copy(red, w.red)
	return ir, red
}

// Reset descarta todas as amostras
func (w *Window) Reset() {
	w.ir = w.ir[:0]
	w.red = w.red[:0]
}
