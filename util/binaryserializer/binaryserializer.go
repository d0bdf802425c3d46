// Package binaryserializer reads and writes fixed-size little-endian
// integers through a shared free list of scratch buffers.
package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxItems is the number of buffers to keep in the free list.
const maxItems = 1024

// binaryFreeList is a concurrent safe free list of byte slices with a cap
// of 8, enough for a uint64.
var binaryFreeList = make(chan []byte, maxItems)

// Borrow returns a byte slice from the free list with a length of 8. A new
// buffer is allocated if there are not any available on the free list.
func Borrow() []byte {
	var buf []byte
	select {
	case buf = <-binaryFreeList:
	default:
		buf = make([]byte, 8)
	}
	return buf[:8]
}

// Return puts the provided byte slice back on the free list. The buffer MUST
// have been obtained via the Borrow function and therefore have a cap of 8.
func Return(buf []byte) {
	select {
	case binaryFreeList <- buf:
	default:
	}
}

// read fills a borrowed buffer of the given size from r and hands it to
// decode before returning it to the free list.
func read(r io.Reader, size int, decode func(buf []byte)) error {
	buf := Borrow()[:size]
	defer Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return errors.WithStack(err)
	}
	decode(buf)
	return nil
}

// write lets encode fill a borrowed buffer of the given size and writes it
// to w.
func write(w io.Writer, size int, encode func(buf []byte)) error {
	buf := Borrow()[:size]
	defer Return(buf)
	encode(buf)
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// Uint8 reads a single byte from r.
func Uint8(r io.Reader) (uint8, error) {
	var rv uint8
	err := read(r, 1, func(buf []byte) { rv = buf[0] })
	return rv, err
}

// Uint32 reads a little-endian uint32 from r.
func Uint32(r io.Reader) (uint32, error) {
	var rv uint32
	err := read(r, 4, func(buf []byte) { rv = binary.LittleEndian.Uint32(buf) })
	return rv, err
}

// Uint64 reads a little-endian uint64 from r.
func Uint64(r io.Reader) (uint64, error) {
	var rv uint64
	err := read(r, 8, func(buf []byte) { rv = binary.LittleEndian.Uint64(buf) })
	return rv, err
}

// PutUint8 writes a single byte to w.
func PutUint8(w io.Writer, val uint8) error {
	return write(w, 1, func(buf []byte) { buf[0] = val })
}

// PutUint32 writes val to w as a little-endian uint32.
func PutUint32(w io.Writer, val uint32) error {
	return write(w, 4, func(buf []byte) { binary.LittleEndian.PutUint32(buf, val) })
}

// PutUint64 writes val to w as a little-endian uint64.
func PutUint64(w io.Writer, val uint64) error {
	return write(w, 8, func(buf []byte) { binary.LittleEndian.PutUint64(buf, val) })
}
