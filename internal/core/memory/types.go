package memory

// CompositionType is the shape of one accessor element.
type CompositionType int

const (
	CompositionUnknown CompositionType = iota
	Scalar
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
)

// NumberOfComponents returns how many numeric components one element holds.
func (c CompositionType) NumberOfComponents() int {
	switch c {
	case Scalar:
		return 1
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4, Mat2:
		return 4
	case Mat3:
		return 9
	case Mat4:
		return 16
	default:
		return 0
	}
}

func (c CompositionType) String() string {
	switch c {
	case Scalar:
		return "SCALAR"
	case Vec2:
		return "VEC2"
	case Vec3:
		return "VEC3"
	case Vec4:
		return "VEC4"
	case Mat2:
		return "MAT2"
	case Mat3:
		return "MAT3"
	case Mat4:
		return "MAT4"
	default:
		return "UNKNOWN"
	}
}

// ComponentType is the numeric type of a single component inside an element.
type ComponentType int

const (
	ComponentUnknown ComponentType = iota
	Byte
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	Float
	Double
)

// SizeInBytes returns the byte width of one component.
func (c ComponentType) SizeInBytes() int {
	switch c {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case Int, UnsignedInt, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

func (c ComponentType) String() string {
	switch c {
	case Byte:
		return "BYTE"
	case UnsignedByte:
		return "UNSIGNED_BYTE"
	case Short:
		return "SHORT"
	case UnsignedShort:
		return "UNSIGNED_SHORT"
	case Int:
		return "INT"
	case UnsignedInt:
		return "UNSIGNED_INT"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	default:
		return "UNKNOWN"
	}
}

// BufferUse tags the purpose of one of the Manager's buffers.
type BufferUse int

const (
	CPUGeneric      BufferUse = iota // component state only the CPU touches
	GPUInstanceData                  // per-instance data uploaded for instanced draws
	GPUVertexData                    // vertex attributes
	UBOGeneric                       // uniform blocks

	bufferUseCount
)

func (u BufferUse) String() string {
	switch u {
	case CPUGeneric:
		return "CPUGeneric"
	case GPUInstanceData:
		return "GPUInstanceData"
	case GPUVertexData:
		return "GPUVertexData"
	case UBOGeneric:
		return "UBOGeneric"
	default:
		return "Unknown"
	}
}

// BufferUses lists every buffer tag in allocation order.
func BufferUses() []BufferUse {
	return []BufferUse{CPUGeneric, GPUInstanceData, GPUVertexData, UBOGeneric}
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}
