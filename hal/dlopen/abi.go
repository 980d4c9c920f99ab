package dlopen

import (
	"encoding/binary"
	"unsafe"

	"github.com/gogpu/clik/hal"
)

// ndrangeSize is the byte length of a packed NDRange: offsets[3], local[3],
// global[3], each a little-endian uint64, matching the HAL port's field
// order.
const ndrangeSize = 3 * 3 * 8

func packNDRange(r hal.NDRange) []byte {
	buf := make([]byte, ndrangeSize)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], r.Offsets[i])
	}
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint64(buf[24+i*8:], r.Local[i])
	}
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint64(buf[48+i*8:], r.Global[i])
	}
	return buf
}

// argRecordSize is the byte length of one packed HalArg: kind, space,
// size, payload, each an 8-byte field for uniform alignment across the
// array.
const argRecordSize = 32

// packArgs flattens a translated argument vector into the HAL's wire
// format. Value arguments (Kind == ArgValue) store the address of their
// own payload bytes as the record's payload field; pinned carries those
// backing slices back to the caller so they are kept alive (and the Go
// runtime does not relocate them) for the duration of the native call
// that will dereference those addresses.
func packArgs(args []hal.Arg) (packed []byte, pinned [][]byte) {
	packed = make([]byte, len(args)*argRecordSize)
	for i, a := range args {
		rec := packed[i*argRecordSize : (i+1)*argRecordSize]
		binary.LittleEndian.PutUint64(rec[0:8], uint64(a.Kind))
		binary.LittleEndian.PutUint64(rec[8:16], uint64(a.Space))
		binary.LittleEndian.PutUint64(rec[16:24], a.Size)
		switch a.Kind {
		case hal.ArgValue:
			pinned = append(pinned, a.Bytes)
			if len(a.Bytes) > 0 {
				binary.LittleEndian.PutUint64(rec[24:32], uint64(uintptr(unsafe.Pointer(&a.Bytes[0]))))
			}
		case hal.ArgAddress:
			binary.LittleEndian.PutUint64(rec[24:32], uint64(a.Address))
		}
	}
	return packed, pinned
}
