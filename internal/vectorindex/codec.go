package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Binary layout for vectors.idx: a 4-byte magic, a uint16 format version, a
// uint16 dimension, a uint32 vector count, then count*dimension float32
// values (slot order, little-endian), i.e. slot i occupies
// [header + i*dim*4, header + (i+1)*dim*4).
const (
	magic       = "VSX1"
	formatVer   = 1
	headerBytes = 4 + 2 + 2 + 4 // magic + version + dim + count
)

// ErrBadMagic means the file does not start with the expected magic bytes —
// either it is not a vectors.idx file, or it is truncated/corrupted.
var ErrBadMagic = errors.New("vectorindex: bad magic")

// ErrVersionMismatch means the file's format version is not one this build
// understands.
var ErrVersionMismatch = errors.New("vectorindex: unsupported format version")

// ErrTruncated means the file is shorter than its own header claims.
var ErrTruncated = errors.New("vectorindex: truncated file")

// Encode writes ix to w in the vectors.idx binary format.
func Encode(w io.Writer, ix *Index) error {
	bw := bufio.NewWriter(w)

	header := make([]byte, headerBytes)
	copy(header[0:4], magic)
	binary.LittleEndian.PutUint16(header[4:6], formatVer)
	binary.LittleEndian.PutUint16(header[6:8], uint16(ix.dim))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(ix.vectors)))
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("vectorindex: write header: %w", err)
	}

	buf := make([]byte, ix.dim*4)
	for _, v := range ix.vectors {
		for i, f := range v {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
		}
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("vectorindex: write vector: %w", err)
		}
	}

	return bw.Flush()
}

// Decode reads an Index previously written by Encode.
func Decode(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	header := make([]byte, headerBytes)
	if _, err := io.ReadFull(br, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrTruncated
		}
		return nil, fmt.Errorf("vectorindex: read header: %w", err)
	}

	if string(header[0:4]) != magic {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != formatVer {
		return nil, ErrVersionMismatch
	}
	dim := int(binary.LittleEndian.Uint16(header[6:8]))
	count := int(binary.LittleEndian.Uint32(header[8:12]))

	ix := &Index{dim: dim, vectors: make([][]float32, 0, count)}
	buf := make([]byte, dim*4)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, ErrTruncated
			}
			return nil, fmt.Errorf("vectorindex: read vector %d: %w", i, err)
		}
		v := make([]float32, dim)
		for j := 0; j < dim; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4 : j*4+4]))
		}
		ix.vectors = append(ix.vectors, v)
	}

	return ix, nil
}
