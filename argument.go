package clik

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/clik/hal"
)

// argKind tags which variant an Argument holds.
type argKind int

const (
	argBuffer argKind = iota
	argScalar
	argLocalMemory
)

// Argument is one translated kernel parameter: a reference to a Buffer,
// an inline by-value scalar, or a request for per-work-group shared-local
// memory. A valid Argument comes from one of the constructors below
// (BufferArg, ScalarBytes, ScalarArg, LocalMemoryArg); the zero value is
// not valid input to CreateKernel.
type Argument struct {
	kind   argKind
	buffer *Buffer
	bytes  []byte
	size   uint64
}

// BufferArg becomes a HAL global-address argument whose address is the
// buffer's device address.
func BufferArg(b *Buffer) Argument {
	return Argument{kind: argBuffer, buffer: b}
}

// ScalarBytes becomes a HAL by-value argument carrying exactly these
// bytes. The bytes are copied at construction, so the caller's slice may
// be reused or discarded immediately after this call returns — unlike
// the original implementation this is ported from, clik does not alias
// caller memory here.
func ScalarBytes(b []byte) Argument {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Argument{kind: argScalar, bytes: cp, size: uint64(len(cp))}
}

// ScalarArg encodes a fixed-width POD value as a by-value argument in
// little-endian byte order, covering the numeric kinds a kernel ABI passes by
// value. Any other type is a programmer error and panics; use
// ScalarBytes directly for anything not listed here.
func ScalarArg(v any) Argument {
	buf := make([]byte, 8)
	switch x := v.(type) {
	case uint32:
		binary.LittleEndian.PutUint32(buf, x)
		return ScalarBytes(buf[:4])
	case int32:
		binary.LittleEndian.PutUint32(buf, uint32(x))
		return ScalarBytes(buf[:4])
	case uint64:
		binary.LittleEndian.PutUint64(buf, x)
		return ScalarBytes(buf[:8])
	case int64:
		binary.LittleEndian.PutUint64(buf, uint64(x))
		return ScalarBytes(buf[:8])
	case float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
		return ScalarBytes(buf[:4])
	case float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(x))
		return ScalarBytes(buf[:8])
	default:
		panic(fmt.Sprintf("clik: ScalarArg: unsupported type %T, use ScalarBytes", v))
	}
}

// LocalMemoryArg becomes a HAL local-address argument; the HAL
// interprets size as the per-work-group shared-local allocation.
func LocalMemoryArg(size uint64) Argument {
	return Argument{kind: argLocalMemory, size: size}
}

// translateArgs converts a runtime Argument vector into HAL arguments,
// preserving order (argument i maps to hal argument i). Any Argument
// with an unrecognized tag or a nil Buffer fails the whole translation.
func translateArgs(args []Argument) ([]hal.Arg, error) {
	out := make([]hal.Arg, len(args))
	for i, a := range args {
		switch a.kind {
		case argBuffer:
			if a.buffer == nil || a.buffer.released {
				return nil, fmt.Errorf("%w: argument %d references a released or nil buffer", ErrInvalidInput, i)
			}
			out[i] = hal.Arg{
				Kind:    hal.ArgAddress,
				Space:   hal.SpaceGlobal,
				Address: a.buffer.addr,
			}
		case argScalar:
			out[i] = hal.Arg{
				Kind:  hal.ArgValue,
				Space: hal.SpaceGlobal,
				Size:  a.size,
				Bytes: a.bytes,
			}
		case argLocalMemory:
			out[i] = hal.Arg{
				Kind:  hal.ArgAddress,
				Space: hal.SpaceLocal,
				Size:  a.size,
			}
		default:
			return nil, fmt.Errorf("%w: argument %d has unrecognized tag", ErrInvalidInput, i)
		}
	}
	return out, nil
}
