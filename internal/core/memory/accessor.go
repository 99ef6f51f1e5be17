package memory

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Accessor is a typed, strided cursor over a BufferView.
//
// Reads and writes are not bounds-checked unless the module is built with
// the scenedebug tag; callers must keep indices below Count.
type Accessor struct {
	view               *BufferView
	compositionType    CompositionType
	componentType      ComponentType
	count              int
	byteStride         int
	byteOffsetInView   int
	byteOffsetInBuffer int
	littleEndian       bool
	normalized         bool
	indices            *Accessor
	max                []float64
	min                []float64
}

func (a *Accessor) BufferView() *BufferView          { return a.view }
func (a *Accessor) CompositionType() CompositionType { return a.compositionType }
func (a *Accessor) ComponentType() ComponentType     { return a.componentType }
func (a *Accessor) Count() int                       { return a.count }
func (a *Accessor) ByteStride() int                  { return a.byteStride }
func (a *Accessor) ByteOffsetInView() int            { return a.byteOffsetInView }
func (a *Accessor) ByteOffsetInBuffer() int          { return a.byteOffsetInBuffer }
func (a *Accessor) Normalized() bool                 { return a.normalized }
func (a *Accessor) LittleEndian() bool               { return a.littleEndian }
func (a *Accessor) Max() []float64                   { return a.max }
func (a *Accessor) Min() []float64                   { return a.min }

// ElementSize is the packed byte size of one element.
func (a *Accessor) ElementSize() int {
	return a.componentType.SizeInBytes() * a.compositionType.NumberOfComponents()
}

// SetLittleEndian selects the byte order used by every read and write.
func (a *Accessor) SetLittleEndian(little bool) { a.littleEndian = little }

// SetIndices routes element lookups through an index accessor: element i
// resolves to element indices.Index(i) of this accessor. Pass nil to clear.
func (a *Accessor) SetIndices(indices *Accessor) { a.indices = indices }

// Bytes returns the bytes spanned by this accessor, stride gaps included.
func (a *Accessor) Bytes() []byte {
	if a.count == 0 {
		return nil
	}
	end := a.byteOffsetInBuffer + a.byteStride*(a.count-1) + a.ElementSize()
	return a.view.buffer.raw[a.byteOffsetInBuffer:end]
}

func (a *Accessor) order() binary.ByteOrder {
	if a.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (a *Accessor) elementOffset(i int) int {
	if a.indices != nil {
		i = a.indices.Index(i)
	}
	checkIndex(a, i)
	return a.byteOffsetInBuffer + i*a.byteStride
}

func (a *Accessor) read(off int) float64 {
	raw := a.view.buffer.raw
	o := a.order()
	switch a.componentType {
	case Float:
		return float64(math.Float32frombits(o.Uint32(raw[off:])))
	case Double:
		return math.Float64frombits(o.Uint64(raw[off:]))
	case Byte:
		return float64(int8(raw[off]))
	case UnsignedByte:
		return float64(raw[off])
	case Short:
		return float64(int16(o.Uint16(raw[off:])))
	case UnsignedShort:
		return float64(o.Uint16(raw[off:]))
	case Int:
		return float64(int32(o.Uint32(raw[off:])))
	case UnsignedInt:
		return float64(o.Uint32(raw[off:]))
	}
	return 0
}

func (a *Accessor) write(off int, v float64) {
	raw := a.view.buffer.raw
	o := a.order()
	switch a.componentType {
	case Float:
		o.PutUint32(raw[off:], math.Float32bits(float32(v)))
	case Double:
		o.PutUint64(raw[off:], math.Float64bits(v))
	case Byte:
		raw[off] = byte(int8(v))
	case UnsignedByte:
		raw[off] = byte(v)
	case Short:
		o.PutUint16(raw[off:], uint16(int16(v)))
	case UnsignedShort:
		o.PutUint16(raw[off:], uint16(v))
	case Int:
		o.PutUint32(raw[off:], uint32(int32(v)))
	case UnsignedInt:
		o.PutUint32(raw[off:], uint32(v))
	}
}

// Component reads component c of element i.
func (a *Accessor) Component(i, c int) float64 {
	return a.read(a.elementOffset(i) + c*a.componentType.SizeInBytes())
}

// SetComponent writes component c of element i.
func (a *Accessor) SetComponent(i, c int, v float64) {
	a.write(a.elementOffset(i)+c*a.componentType.SizeInBytes(), v)
}

// Index reads element i as an integer, the form index accessors use.
func (a *Accessor) Index(i int) int {
	checkIndex(a, i)
	return int(a.read(a.byteOffsetInBuffer + i*a.byteStride))
}

func (a *Accessor) Scalar(i int) float32 {
	return float32(a.read(a.elementOffset(i)))
}

func (a *Accessor) SetScalar(i int, v float32) {
	a.write(a.elementOffset(i), float64(v))
}

func (a *Accessor) Vec2(i int) mgl32.Vec2 {
	var v mgl32.Vec2
	a.readInto(i, v[:])
	return v
}

func (a *Accessor) SetVec2(i int, x, y float32) {
	a.writeFrom(i, []float32{x, y})
}

func (a *Accessor) Vec3(i int) mgl32.Vec3 {
	var v mgl32.Vec3
	a.readInto(i, v[:])
	return v
}

func (a *Accessor) SetVec3(i int, x, y, z float32) {
	a.writeFrom(i, []float32{x, y, z})
}

func (a *Accessor) Vec4(i int) mgl32.Vec4 {
	var v mgl32.Vec4
	a.readInto(i, v[:])
	return v
}

func (a *Accessor) SetVec4(i int, x, y, z, w float32) {
	a.writeFrom(i, []float32{x, y, z, w})
}

// Mat3 reads a column-major 3x3 matrix.
func (a *Accessor) Mat3(i int) mgl32.Mat3 {
	var m mgl32.Mat3
	a.readInto(i, m[:])
	return m
}

func (a *Accessor) SetMat3(i int, m mgl32.Mat3) {
	a.writeFrom(i, m[:])
}

// Mat4 reads a column-major 4x4 matrix.
func (a *Accessor) Mat4(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	a.readInto(i, m[:])
	return m
}

func (a *Accessor) SetMat4(i int, m mgl32.Mat4) {
	a.writeFrom(i, m[:])
}

// Element returns a handle to element i.
func (a *Accessor) Element(i int) Element {
	return Element{acc: a, index: i}
}

// readInto fills dst from element i; dst may be shorter than the element.
func (a *Accessor) readInto(i int, dst []float32) {
	off := a.elementOffset(i)
	size := a.componentType.SizeInBytes()
	if a.componentType == Float {
		raw := a.view.buffer.raw
		o := a.order()
		for c := range dst {
			dst[c] = math.Float32frombits(o.Uint32(raw[off+c*4:]))
		}
		return
	}
	for c := range dst {
		dst[c] = float32(a.read(off + c*size))
	}
}

func (a *Accessor) writeFrom(i int, src []float32) {
	off := a.elementOffset(i)
	size := a.componentType.SizeInBytes()
	if a.componentType == Float {
		raw := a.view.buffer.raw
		o := a.order()
		for c, v := range src {
			o.PutUint32(raw[off+c*4:], math.Float32bits(v))
		}
		return
	}
	for c, v := range src {
		a.write(off+c*size, float64(v))
	}
}

// CalcMinMax scans every element and records the per-component bounds,
// replacing any Max/Min given at creation.
func (a *Accessor) CalcMinMax() (lo, hi []float64) {
	n := a.compositionType.NumberOfComponents()
	if a.count == 0 || n == 0 {
		return nil, nil
	}
	lo = make([]float64, n)
	hi = make([]float64, n)
	for c := 0; c < n; c++ {
		lo[c] = math.Inf(1)
		hi[c] = math.Inf(-1)
	}
	for i := 0; i < a.count; i++ {
		for c := 0; c < n; c++ {
			v := a.Component(i, c)
			if v < lo[c] {
				lo[c] = v
			}
			if v > hi[c] {
				hi[c] = v
			}
		}
	}
	a.min, a.max = lo, hi
	return lo, hi
}
