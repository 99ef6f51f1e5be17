package memory

import "fmt"

// BufferView is a window into a Buffer. SoA views stack accessors as columns;
// AoS views interleave them inside each byteStride-wide element.
type BufferView struct {
	buffer             *Buffer
	index              int
	byteOffsetInBuffer int
	byteLength         int
	byteStride         int
	isAoS              bool
	takenBytes         int
	accessors          []*Accessor
}

func (v *BufferView) Buffer() *Buffer         { return v.buffer }
func (v *BufferView) Index() int              { return v.index }
func (v *BufferView) ByteOffsetInBuffer() int { return v.byteOffsetInBuffer }
func (v *BufferView) ByteLength() int         { return v.byteLength }
func (v *BufferView) ByteStride() int         { return v.byteStride }
func (v *BufferView) IsAoS() bool             { return v.isAoS }
func (v *BufferView) IsSoA() bool             { return !v.isAoS }
func (v *BufferView) TakenBytes() int         { return v.takenBytes }
func (v *BufferView) Accessors() []*Accessor  { return v.accessors }

// Bytes returns the view's slice of the buffer.
func (v *BufferView) Bytes() []byte {
	return v.buffer.raw[v.byteOffsetInBuffer : v.byteOffsetInBuffer+v.byteLength]
}

// AccessorRequest describes an Accessor to take from a BufferView.
// ByteStride of zero picks the layout default; ByteAlign of zero means 4.
type AccessorRequest struct {
	CompositionType CompositionType
	ComponentType   ComponentType
	Count           int
	ByteStride      int
	ByteAlign       int
	Max             []float64
	Min             []float64
	Normalized      bool
}

// TakeAccessor reserves room for req.Count elements inside the view.
func (v *BufferView) TakeAccessor(req AccessorRequest) (*Accessor, error) {
	elementSize := req.ComponentType.SizeInBytes() * req.CompositionType.NumberOfComponents()
	if elementSize == 0 || req.Count < 0 || req.ByteStride < 0 {
		return nil, fmt.Errorf("take accessor %s/%s: %w", req.CompositionType, req.ComponentType, ErrInvalidRequest)
	}
	align := req.ByteAlign
	if align == 0 {
		align = defaultByteAlign
	}

	stride := req.ByteStride
	if stride == 0 {
		if v.isAoS && v.byteStride != 0 {
			stride = v.byteStride
		} else {
			stride = elementSize
		}
	}
	if elementSize > stride {
		return nil, fmt.Errorf("take accessor: element %d bytes exceeds stride %d: %w", elementSize, stride, ErrInvalidRequest)
	}

	var offset, taken int
	if v.isAoS {
		// interleaved: this accessor claims elementSize bytes of every element
		offset = v.takenBytes
		if offset+elementSize > stride {
			return nil, fmt.Errorf("take accessor: element slot %d+%d exceeds stride %d: %w",
				offset, elementSize, stride, ErrBufferViewExhausted)
		}
		if req.Count > 0 && stride*(req.Count-1)+offset+elementSize > v.byteLength {
			return nil, fmt.Errorf("take accessor: %d interleaved elements exceed %d bytes: %w",
				req.Count, v.byteLength, ErrBufferViewExhausted)
		}
		taken = offset + elementSize
	} else {
		offset = alignUp(v.takenBytes, align)
		if offset+stride*req.Count > v.byteLength {
			return nil, fmt.Errorf("take accessor: %d bytes at %d exceed view of %d bytes: %w",
				stride*req.Count, offset, v.byteLength, ErrBufferViewExhausted)
		}
		taken = offset + stride*req.Count
	}

	a := &Accessor{
		view:               v,
		compositionType:    req.CompositionType,
		componentType:      req.ComponentType,
		count:              req.Count,
		byteStride:         stride,
		byteOffsetInView:   offset,
		byteOffsetInBuffer: v.byteOffsetInBuffer + offset,
		littleEndian:       true,
		normalized:         req.Normalized,
		max:                append([]float64(nil), req.Max...),
		min:                append([]float64(nil), req.Min...),
	}
	v.takenBytes = taken
	v.accessors = append(v.accessors, a)
	return a, nil
}
