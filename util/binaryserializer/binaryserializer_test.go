package binaryserializer

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
)

func TestRoundTripIsLittleEndian(t *testing.T) {
	buf := &bytes.Buffer{}
	err := PutUint32(buf, 0x01020304)
	if err != nil {
		t.Fatalf("TestRoundTripIsLittleEndian: PutUint32 unexpectedly failed: %s", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("TestRoundTripIsLittleEndian: wrong encoding: %x", buf.Bytes())
	}
	err = PutUint64(buf, 1<<40)
	if err != nil {
		t.Fatalf("TestRoundTripIsLittleEndian: PutUint64 unexpectedly failed: %s", err)
	}
	err = PutUint8(buf, 7)
	if err != nil {
		t.Fatalf("TestRoundTripIsLittleEndian: PutUint8 unexpectedly failed: %s", err)
	}

	u32, err := Uint32(buf)
	if err != nil || u32 != 0x01020304 {
		t.Fatalf("TestRoundTripIsLittleEndian: Uint32 returned %x, %v", u32, err)
	}
	u64, err := Uint64(buf)
	if err != nil || u64 != 1<<40 {
		t.Fatalf("TestRoundTripIsLittleEndian: Uint64 returned %x, %v", u64, err)
	}
	u8, err := Uint8(buf)
	if err != nil || u8 != 7 {
		t.Fatalf("TestRoundTripIsLittleEndian: Uint8 returned %d, %v", u8, err)
	}
}

func TestShortRead(t *testing.T) {
	_, err := Uint32(bytes.NewReader([]byte{1, 2}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("TestShortRead: want io.ErrUnexpectedEOF, got: %v", err)
	}
}
