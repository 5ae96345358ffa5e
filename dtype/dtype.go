// Package dtype describes the scalar and vector element types that flow
// through buffers, ports, and the conversion registry.
package dtype

import "fmt"

// ElementType enumerates the scalar numeric kinds a DType can carry.
type ElementType int

const (
	Int8 ElementType = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	ComplexInt8
	ComplexUInt8
	ComplexInt16
	ComplexUInt16
	ComplexInt32
	ComplexUInt32
	ComplexInt64
	ComplexUInt64
	ComplexFloat32
	ComplexFloat64
	Custom // opaque byte payload with no defined scalar conversion
)

// IsComplex reports whether the element type packs a real/imaginary pair.
func (e ElementType) IsComplex() bool {
	return e >= ComplexInt8 && e <= ComplexFloat64
}

// Real returns the real-valued ElementType backing a complex one (identity
// for already-real types).
func (e ElementType) Real() ElementType {
	if !e.IsComplex() {
		return e
	}
	return e - (ComplexInt8 - Int8)
}

// Complex returns the complex ElementType built from a real one (identity
// for already-complex types, or Custom if no complex form exists).
func (e ElementType) Complex() ElementType {
	if e.IsComplex() {
		return e
	}
	if e < Int8 || e > Float64 {
		return Custom
	}
	return e + (ComplexInt8 - Int8)
}

// scalarSize is the size in bytes of one real lane of the element type.
func (e ElementType) scalarSize() int {
	switch e {
	case Int8, UInt8, ComplexInt8, ComplexUInt8:
		return 1
	case Int16, UInt16, ComplexInt16, ComplexUInt16:
		return 2
	case Int32, UInt32, Float32, ComplexInt32, ComplexUInt32, ComplexFloat32:
		return 4
	case Int64, UInt64, Float64, ComplexInt64, ComplexUInt64, ComplexFloat64:
		return 8
	default:
		return 1
	}
}

// String names the element type the way a converter-registry key would.
func (e ElementType) String() string {
	names := map[ElementType]string{
		Int8: "int8", UInt8: "uint8", Int16: "int16", UInt16: "uint16",
		Int32: "int32", UInt32: "uint32", Int64: "int64", UInt64: "uint64",
		Float32: "float32", Float64: "float64",
		ComplexInt8: "complex_int8", ComplexUInt8: "complex_uint8",
		ComplexInt16: "complex_int16", ComplexUInt16: "complex_uint16",
		ComplexInt32: "complex_int32", ComplexUInt32: "complex_uint32",
		ComplexInt64: "complex_int64", ComplexUInt64: "complex_uint64",
		ComplexFloat32: "complex_float32", ComplexFloat64: "complex_float64",
		Custom: "custom",
	}
	if n, ok := names[e]; ok {
		return n
	}
	return fmt.Sprintf("elemtype(%d)", int(e))
}

// DType is (element_type_tag, vector_size): the element type enumerates
// signed/unsigned integers 8/16/32/64, float/double, each with an optional
// complex flag; vector_size is the number of elements per logical sample.
type DType struct {
	Elem       ElementType
	VectorSize int
}

// New builds a DType with the given element type and vector size (minimum 1).
func New(elem ElementType, vectorSize int) DType {
	if vectorSize < 1 {
		vectorSize = 1
	}
	return DType{Elem: elem, VectorSize: vectorSize}
}

// ElemSize is the number of bytes per scalar, doubled for complex types
// (real + imaginary lanes of equal width).
func (d DType) ElemSize() int {
	n := d.Elem.scalarSize()
	if d.Elem.IsComplex() {
		n *= 2
	}
	return n
}

// Size is the number of bytes per logical sample (ElemSize * VectorSize).
func (d DType) Size() int {
	vs := d.VectorSize
	if vs < 1 {
		vs = 1
	}
	return d.ElemSize() * vs
}

// String renders "name[vectorsize]" or just "name" for scalar vector size 1.
func (d DType) String() string {
	if d.VectorSize <= 1 {
		return d.Elem.String()
	}
	return fmt.Sprintf("%s[%d]", d.Elem.String(), d.VectorSize)
}

// IsComplex reports whether samples of this dtype are complex-valued.
func (d DType) IsComplex() bool {
	return d.Elem.IsComplex()
}

// RealCounterpart returns the equivalent real DType (identity if already real).
func (d DType) RealCounterpart() DType {
	return DType{Elem: d.Elem.Real(), VectorSize: d.VectorSize}
}

// ComplexCounterpart returns the equivalent complex DType.
func (d DType) ComplexCounterpart() DType {
	return DType{Elem: d.Elem.Complex(), VectorSize: d.VectorSize}
}
