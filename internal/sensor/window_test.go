package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowPushAndFill(t *testing.T) {
	w := NewWindow(3)

	assert.False(t, w.IsFull())
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 3, w.Size())

	w.Push(1, 10)
	w.Push(2, 20)
	assert.False(t, w.IsFull())
	assert.Equal(t, 2, w.Len())

	w.Push(3, 30)
	assert.True(t, w.IsFull())
	assert.Equal(t, 3, w.Len())
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	w.Push(1, 10)
	w.Push(2, 20)
	w.Push(3, 30)

	// A janela cheia descarta a amostra mais antiga a cada push
	w.Push(4, 40)

	require.True(t, w.IsFull())
	ir, red := w.Snapshot()
	assert.Equal(t, []uint32{20, 30, 40}, ir)
	assert.Equal(t, []uint32{2, 3, 4}, red)
}

func TestWindowSnapshotIsACopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(1, 10)
	w.Push(2, 20)

	ir, red := w.Snapshot()
	ir[0] = 999
	red[0] = 999

	ir2, red2 := w.Snapshot()
	assert.Equal(t, uint32(10), ir2[0])
	assert.Equal(t, uint32(1), red2[0])
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(2)
	w.Push(1, 10)
	w.Push(2, 20)
	require.True(t, w.IsFull())

	w.Reset()
	assert.Equal(t, 0, w.Len())
	assert.False(t, w.IsFull())

	// A janela continua utilizável após o reset
	w.Push(5, 50)
	assert.Equal(t, 1, w.Len())
}

func TestWindowDefaultSize(t *testing.T) {
	w := NewWindow(0)
	assert.Equal(t, DefaultWindowSize, w.Size())

	w = NewWindow(-1)
	assert.Equal(t, DefaultWindowSize, w.Size())
}
