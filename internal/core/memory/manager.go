package memory

import (
	"fmt"

	"go.uber.org/zap"
)

// Capacities sizes the Manager's buffers in bytes.
type Capacities struct {
	CPUGeneric      int
	GPUInstanceData int
	GPUVertexData   int
	UBOGeneric      int
}

func (c Capacities) of(use BufferUse) int {
	switch use {
	case CPUGeneric:
		return c.CPUGeneric
	case GPUInstanceData:
		return c.GPUInstanceData
	case GPUVertexData:
		return c.GPUVertexData
	case UBOGeneric:
		return c.UBOGeneric
	}
	return 0
}

// Manager owns one Buffer per BufferUse. Capacities are fixed at creation;
// running out is a configuration error, not something to recover from.
type Manager struct {
	buffers [bufferUseCount]*Buffer
	log     *zap.Logger
}

// NewManager allocates every buffer up front, each rounded up to a multiple
// of four bytes.
func NewManager(caps Capacities, log *zap.Logger) (*Manager, error) {
	m := &Manager{log: log}
	for _, use := range BufferUses() {
		n := caps.of(use)
		if n < 0 {
			return nil, fmt.Errorf("buffer %s: negative capacity %d: %w", use, n, ErrInvalidRequest)
		}
		m.buffers[use] = NewBuffer(use.String(), alignUp(n, defaultByteAlign))
	}
	log.Debug("memory manager ready",
		zap.Int("cpu_generic", m.buffers[CPUGeneric].ByteLength()),
		zap.Int("gpu_instance_data", m.buffers[GPUInstanceData].ByteLength()),
		zap.Int("gpu_vertex_data", m.buffers[GPUVertexData].ByteLength()),
		zap.Int("ubo_generic", m.buffers[UBOGeneric].ByteLength()),
	)
	return m, nil
}

// Buffer returns the buffer for a tag, or nil for an unknown tag.
func (m *Manager) Buffer(use BufferUse) *Buffer {
	if use < 0 || use >= bufferUseCount {
		return nil
	}
	return m.buffers[use]
}

// Usage is a snapshot of one buffer's fill level.
type Usage struct {
	Use        BufferUse
	TakenBytes int
	ByteLength int
	Views      int
}

func (m *Manager) Usage() []Usage {
	out := make([]Usage, 0, bufferUseCount)
	for _, use := range BufferUses() {
		b := m.buffers[use]
		out = append(out, Usage{
			Use:        use,
			TakenBytes: b.TakenBytes(),
			ByteLength: b.ByteLength(),
			Views:      b.Views(),
		})
	}
	return out
}
