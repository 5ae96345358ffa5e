package dtype

import (
	"encoding/binary"
	"math"

	"github.com/pothosware/flowcore/flowerr"
)

// converterFunc converts num scalar samples from in to out, both already
// sized for the element counts at their respective widths.
type converterFunc func(in, out []byte, num int)

// registry is the process-wide read-mostly numeric-converter table,
// modeled as a lazily built immutable map per the "Global singletons"
// design note: populated once at package init, never mutated after.
var registry = map[[2]ElementType]converterFunc{}

func init() {
	real := []ElementType{Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float32, Float64}
	for _, in := range real {
		for _, out := range real {
			registerConverter(in, out)
		}
	}
}

func registerConverter(in, out ElementType) {
	registry[[2]ElementType{in, out}] = func(inBuf, outBuf []byte, num int) {
		for i := 0; i < num; i++ {
			v := readScalar(in, inBuf[i*in.scalarSize():])
			writeScalar(out, outBuf[i*out.scalarSize():], v)
		}
	}
}

// readScalar decodes one little-endian scalar of the given element type as a float64.
func readScalar(t ElementType, b []byte) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case UInt8:
		return float64(b[0])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case UInt16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case UInt32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case UInt64:
		return float64(binary.LittleEndian.Uint64(b))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}

// writeScalar encodes v as a little-endian scalar of the given element type.
func writeScalar(t ElementType, b []byte, v float64) {
	switch t {
	case Int8:
		b[0] = byte(int8(v))
	case UInt8:
		b[0] = byte(uint8(v))
	case Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case UInt16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case UInt32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Int64:
		binary.LittleEndian.PutUint64(b, uint64(int64(v)))
	case UInt64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	case Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// Convert converts num real samples of in's element type from inBuf into
// outBuf, which must already be sized for num elements of out's element
// type. Identical in and out types are copied as-is. Otherwise returns
// flowerr.ErrBufferConvertError if no converter is registered for the
// (in, out) pair -- i.e. either side is complex or Custom.
func Convert(in, out ElementType, inBuf, outBuf []byte, num int) error {
	if in == out {
		copy(outBuf, inBuf[:num*in.scalarSize()])
		return nil
	}
	fn, ok := registry[[2]ElementType{in, out}]
	if !ok {
		return flowerr.ConvertError(in.String(), out.String())
	}
	fn(inBuf, outBuf, num)
	return nil
}

// ConvertComplex splits a complex buffer into separate real/imaginary
// component buffers of the given real element type. The inverse merge is
// MergeComplex.
func ConvertComplex(in ElementType, inBuf []byte, outRe, outIm []byte, realOut ElementType, num int) error {
	if !in.IsComplex() {
		return flowerr.ConvertError(in.String(), realOut.String()+" (complex split requires a complex input)")
	}
	realIn := in.Real()
	laneSize := realIn.scalarSize()
	for i := 0; i < num; i++ {
		re := inBuf[i*laneSize*2:]
		im := inBuf[i*laneSize*2+laneSize:]
		v := readScalar(realIn, re)
		writeScalar(realOut, outRe[i*realOut.scalarSize():], v)
		v = readScalar(realIn, im)
		writeScalar(realOut, outIm[i*realOut.scalarSize():], v)
	}
	return nil
}

// MergeComplex is the inverse of ConvertComplex: interleaves separate
// real/imaginary component buffers into one complex buffer.
func MergeComplex(realIn ElementType, inRe, inIm []byte, complexOut ElementType, outBuf []byte, num int) error {
	if !complexOut.IsComplex() {
		return flowerr.ConvertError(realIn.String(), complexOut.String()+" (complex merge requires a complex output)")
	}
	outReal := complexOut.Real()
	laneSize := outReal.scalarSize()
	for i := 0; i < num; i++ {
		v := readScalar(realIn, inRe[i*realIn.scalarSize():])
		writeScalar(outReal, outBuf[i*laneSize*2:], v)
		v = readScalar(realIn, inIm[i*realIn.scalarSize():])
		writeScalar(outReal, outBuf[i*laneSize*2+laneSize:], v)
	}
	return nil
}
