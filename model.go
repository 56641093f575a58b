package gm

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
)

// reader is a forward-only cursor over the decoded archive body (§4.A).
// Every primitive the resource chunks are built from — fixed-width
// integers, length-prefixed strings/blobs, and zlib-compressed payloads —
// is read through it so offsets stay accurate for ParseError reporting.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) offset() int { return r.pos }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.bytes(n)
	return err
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) f64() (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// bool32 reads a 4-byte little-endian "bool" (§4.A's Bool32): any nonzero
// value is true.
func (r *reader) bool32() (bool, error) {
	v, err := r.u32()
	return v != 0, err
}

// string32 reads a length-prefixed string (§4.A's String32): a u32 byte
// count followed by that many raw bytes, not NUL-terminated.
func (r *reader) string32() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// data32 reads a length-prefixed opaque blob (§4.A's Data32): used for
// anything the decoder carries through without interpreting (sound
// payloads, uncompressed binary blobs recorded alongside a resource).
func (r *reader) data32() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// zlibData reads a length-prefixed zlib-compressed payload (§4.A:
// sprite/background frames and the loader images in the settings block
// are stored deflate-compressed). The decoder inflates the BMP-like
// container without interpreting its pixels (§1's Non-goals exclude
// rendering fidelity).
func (r *reader) zlibData() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	compressed, err := r.bytes(int(n))
	if err != nil {
		return nil, err
	}
	if len(compressed) == 0 {
		return nil, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, ErrDeflateFailed
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, ErrDeflateFailed
	}
	return out, nil
}
