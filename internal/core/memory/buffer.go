package memory

import (
	"errors"
	"fmt"
)

const defaultByteAlign = 4

var (
	ErrBufferExhausted     = errors.New("buffer capacity exhausted")
	ErrBufferViewExhausted = errors.New("buffer view capacity exhausted")
	ErrInvalidRequest      = errors.New("invalid allocation request")
)

// Buffer owns a fixed-size byte region. Views are carved from it with an
// append-only cursor; nothing taken is ever given back.
type Buffer struct {
	name       string
	raw        []byte
	takenBytes int
	views      []*BufferView
}

// NewBuffer allocates a zeroed buffer of byteLength bytes.
func NewBuffer(name string, byteLength int) *Buffer {
	if byteLength < 0 {
		byteLength = 0
	}
	return &Buffer{
		name: name,
		raw:  make([]byte, byteLength),
	}
}

func (b *Buffer) Name() string        { return b.name }
func (b *Buffer) ByteLength() int     { return len(b.raw) }
func (b *Buffer) TakenBytes() int     { return b.takenBytes }
func (b *Buffer) Views() int          { return len(b.views) }
func (b *Buffer) RemainingBytes() int { return len(b.raw) - b.takenBytes }

// Bytes exposes the whole backing store, e.g. as a GPU upload source.
func (b *Buffer) Bytes() []byte { return b.raw }

// ViewRequest describes a BufferView to take from a Buffer.
// ByteAlign of zero means 4.
type ViewRequest struct {
	ByteLength int
	ByteStride int
	IsAoS      bool
	ByteAlign  int
}

// TakeBufferView reserves a view starting at the cursor rounded up to the
// requested alignment. On success the cursor moves past the view for good;
// on failure the buffer is left untouched.
func (b *Buffer) TakeBufferView(req ViewRequest) (*BufferView, error) {
	if req.ByteLength < 0 || req.ByteStride < 0 || req.ByteAlign < 0 {
		return nil, fmt.Errorf("take view from %s: %w", b.name, ErrInvalidRequest)
	}
	align := req.ByteAlign
	if align == 0 {
		align = defaultByteAlign
	}

	start := alignUp(b.takenBytes, align)
	if start+req.ByteLength > len(b.raw) {
		return nil, fmt.Errorf("take %d bytes from %s (%d/%d taken): %w",
			req.ByteLength, b.name, b.takenBytes, len(b.raw), ErrBufferExhausted)
	}

	v := &BufferView{
		buffer:             b,
		index:              len(b.views),
		byteOffsetInBuffer: start,
		byteLength:         req.ByteLength,
		byteStride:         req.ByteStride,
		isAoS:              req.IsAoS,
	}
	b.takenBytes = start + req.ByteLength
	b.views = append(b.views, v)
	return v, nil
}
