package buffer

import (
	"encoding/binary"
	"fmt"

	"github.com/pothosware/flowcore/dtype"
)

// Chunk is a (possibly null) triple (address, length, dtype) holding a
// SharedBuffer or ManagedBuffer -- spec.md §3 "BufferChunk".
type Chunk struct {
	buf SharedBuffer
	dt  dtype.DType
}

// nullChunk is the shared process-wide null chunk singleton (spec.md §9
// "Global singletons"): a read-mostly, lazily-useful zero value.
var nullChunk = Chunk{}

// Null returns the shared null BufferChunk.
func Null() Chunk { return nullChunk }

// New wraps an existing SharedBuffer (plain or Managed) as a Chunk of the
// given dtype, spanning the buffer's full length.
func New(buf SharedBuffer, dt dtype.DType) Chunk {
	return Chunk{buf: buf, dt: dt}
}

// Alloc allocates a fresh, unmanaged Chunk of numBytes.
func Alloc(numBytes int, dt dtype.DType) Chunk {
	return Chunk{buf: NewSharedBuffer(numBytes), dt: dt}
}

// IsNull reports whether this chunk holds no buffer.
func (c Chunk) IsNull() bool { return !c.buf.IsValid() }

// DType returns the chunk's element type.
func (c Chunk) DType() dtype.DType { return c.dt }

// WithDType returns a copy of the chunk tagged with a different dtype,
// without touching the underlying bytes.
func (c Chunk) WithDType(dt dtype.DType) Chunk {
	c.dt = dt
	return c
}

// Length is the number of valid bytes in the chunk.
func (c Chunk) Length() int {
	if c.IsNull() {
		return 0
	}
	return c.buf.Length()
}

// Elements returns Length() / dtype.Size(), or 0 if the dtype has zero size.
func (c Chunk) Elements() int {
	sz := c.dt.Size()
	if sz == 0 {
		return 0
	}
	return c.Length() / sz
}

// Address mirrors the underlying SharedBuffer's identity, per spec.md §3's
// invariant "address within capacity".
func (c Chunk) Address() uintptr {
	if c.IsNull() {
		return 0
	}
	return c.buf.Address()
}

// Bytes returns the raw bytes of the chunk.
func (c Chunk) Bytes() []byte {
	if c.IsNull() {
		return nil
	}
	return c.buf.Bytes()
}

// SharedBuffer exposes the underlying buffer handle, e.g. to Retain/Release
// it independently of the Chunk value.
func (c Chunk) SharedBuffer() SharedBuffer { return c.buf }

// Slice returns a sub-chunk over [begin, begin+length) bytes, sharing
// ownership with the parent.
func (c Chunk) Slice(begin, length int) Chunk {
	if c.IsNull() {
		if begin == 0 && length == 0 {
			return c
		}
		panic("buffer: slice of null chunk")
	}
	return Chunk{buf: c.buf.Slice(begin, length), dt: c.dt}
}

// Append produces a new chunk with concatenated bytes: if self is null, the
// result is simply a reference to other (no copy); if other is null, the
// result is self (no copy); otherwise a new buffer is allocated and the two
// chunks' bytes are copied into it, per spec.md §3.
func (c Chunk) Append(other Chunk) Chunk {
	if c.IsNull() {
		return other
	}
	if other.IsNull() {
		return c
	}
	acc := Alloc(c.Length()+other.Length(), c.dt)
	dst := acc.Bytes()
	n := copy(dst, c.Bytes())
	copy(dst[n:], other.Bytes())
	return acc
}

// Convert returns a new chunk holding this chunk's bytes reinterpreted /
// numerically converted to the target dtype. Returns
// flowerr.ErrBufferConvertError if no converter exists for the pair.
func (c Chunk) Convert(target dtype.DType) (Chunk, error) {
	if c.IsNull() {
		return Null(), nil
	}
	if c.dt.Elem == target.Elem {
		return c.WithDType(target), nil
	}
	num := c.Elements()
	out := Alloc(num*target.Size(), target)
	if err := dtype.Convert(c.dt.Elem, target.Elem, c.Bytes(), out.Bytes(), num); err != nil {
		return Chunk{}, err
	}
	return out, nil
}

// ConvertComplex splits a complex chunk into separate real/imaginary
// component chunks of the given real dtype, per spec.md §3 "splittable
// real<->complex".
func (c Chunk) ConvertComplex(realDType dtype.DType) (re, im Chunk, err error) {
	if c.IsNull() {
		return Null(), Null(), nil
	}
	num := c.Elements()
	re = Alloc(num*realDType.Size(), realDType)
	im = Alloc(num*realDType.Size(), realDType)
	if err := dtype.ConvertComplex(c.dt.Elem, c.Bytes(), re.Bytes(), im.Bytes(), realDType.Elem, num); err != nil {
		return Chunk{}, Chunk{}, err
	}
	return re, im, nil
}

// MergeComplex is the inverse of ConvertComplex, combining real/imaginary
// chunks into one complex chunk of the given complex dtype.
func MergeComplex(re, im Chunk, complexDType dtype.DType) (Chunk, error) {
	if re.IsNull() || im.IsNull() {
		return Null(), nil
	}
	num := re.Elements()
	out := Alloc(num*complexDType.Size(), complexDType)
	if err := dtype.MergeComplex(re.dt.Elem, re.Bytes(), im.Bytes(), complexDType.Elem, out.Bytes(), num); err != nil {
		return Chunk{}, err
	}
	return out, nil
}

// Serialize writes the wire format fixed by spec.md §6:
// (bool is_null, uint32 length_if_not_null, raw_bytes, dtype_record).
func (c Chunk) Serialize() []byte {
	if c.IsNull() {
		return []byte{0}
	}
	raw := c.Bytes()
	out := make([]byte, 0, 1+4+len(raw)+8)
	out = append(out, 1)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
	out = append(out, lenBuf[:]...)
	out = append(out, raw...)
	out = append(out, serializeDType(c.dt)...)
	return out
}

// Deserialize reads the wire format produced by Serialize, returning the
// number of bytes consumed.
func Deserialize(data []byte) (Chunk, int, error) {
	if len(data) < 1 {
		return Chunk{}, 0, fmt.Errorf("buffer: truncated chunk header")
	}
	if data[0] == 0 {
		return Null(), 1, nil
	}
	if len(data) < 5 {
		return Chunk{}, 0, fmt.Errorf("buffer: truncated chunk length")
	}
	length := int(binary.LittleEndian.Uint32(data[1:5]))
	offset := 5
	if len(data) < offset+length {
		return Chunk{}, 0, fmt.Errorf("buffer: truncated chunk payload")
	}
	raw := data[offset : offset+length]
	offset += length
	dt, n, err := deserializeDType(data[offset:])
	if err != nil {
		return Chunk{}, 0, err
	}
	offset += n

	out := Alloc(length, dt)
	copy(out.Bytes(), raw)
	return out, offset, nil
}

func serializeDType(dt dtype.DType) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(dt.Elem))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(dt.VectorSize))
	return buf
}

func deserializeDType(data []byte) (dtype.DType, int, error) {
	if len(data) < 8 {
		return dtype.DType{}, 0, fmt.Errorf("buffer: truncated dtype record")
	}
	elem := dtype.ElementType(binary.LittleEndian.Uint32(data[0:4]))
	vs := int(binary.LittleEndian.Uint32(data[4:8]))
	return dtype.New(elem, vs), 8, nil
}
