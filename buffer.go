package hegemone

import "fmt"

// Buffer is a fixed length transfer buffer owned by a single driver and reused
// between calls. Its length never changes after construction.
type Buffer struct {
	data []byte
}

func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Reset zeroes the buffer.
func (b *Buffer) Reset() *Buffer {
	for i := range b.data {
		b.data[i] = 0x00
	}
	return b
}

// Put resets the buffer and copies vals to its beginning.
func (b *Buffer) Put(vals ...byte) error {
	if len(vals) > len(b.data) {
		return fmt.Errorf("put %d bytes into %d byte buffer: %w", len(vals), len(b.data), ErrBufferOverflow)
	}
	b.Reset()
	copy(b.data, vals)
	return nil
}

func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.data)
}
