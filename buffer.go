package clik

import (
	"fmt"

	"github.com/gogpu/clik/hal"
)

// bufferAlignment is the fixed device-address alignment CreateBuffer
// requests from the HAL allocator (spec.md §3's "implementation choice,
// e.g. 4096").
const bufferAlignment = 4096

// Buffer is a fixed-size allocation in device memory.
type Buffer struct {
	device   *Device
	addr     hal.DeviceAddress
	size     uint64
	released bool
}

// CreateBuffer reserves size bytes of device memory. A HAL allocation
// failure (null device address) returns ErrResourceExhausted.
func CreateBuffer(d *Device, size uint64) (*Buffer, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidInput)
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-size buffer", ErrInvalidInput)
	}
	if err := d.checkReleased(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	addr, err := d.hal.MemAlloc(size, bufferAlignment)
	if err != nil || addr == hal.NullAddress {
		return nil, fmt.Errorf("clik: create buffer: %w", ErrResourceExhausted)
	}

	return &Buffer{device: d, addr: addr, size: size}, nil
}

// Size returns the buffer's byte size as requested at creation.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Release frees the buffer's device address.
func (b *Buffer) Release() {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.device.hal.MemFree(b.addr)
}

// boundsCheck enforces offset + size <= b.size, the invariant every
// read/write/copy command must satisfy at enqueue/call time.
func (b *Buffer) boundsCheck(offset, size uint64) error {
	if b.released {
		return ErrReleased
	}
	if offset+size > b.size {
		return fmt.Errorf("%w: offset %d + size %d exceeds buffer size %d", ErrInvalidInput, offset, size, b.size)
	}
	return nil
}
