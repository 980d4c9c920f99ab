package clik

import (
	"fmt"

	"github.com/gogpu/clik/hal"
)

// The synchronous surface mirrors the asynchronous one's Device/Program/
// Buffer lifecycle but calls the HAL inline on the caller's goroutine:
// no Command Queue, no timestamps, no worker, no dispatch/wait. It is a
// thin facade over the same HAL bindings the queue uses, matching
// spec.md §4.6 exactly.

// ReadBuffer copies size bytes from src at offset into dst, blocking
// until the HAL completes the read.
func ReadBuffer(d *Device, dst []byte, src *Buffer, offset, size uint64) error {
	if d == nil || src == nil {
		return fmt.Errorf("%w: nil device or buffer", ErrInvalidInput)
	}
	if err := d.checkReleased(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := src.boundsCheck(offset, size); err != nil {
		return err
	}
	if err := d.hal.MemRead(dst, src.addr+hal.DeviceAddress(offset), size); err != nil {
		return deviceFailure("ReadBuffer", err)
	}
	return nil
}

// WriteBuffer copies size bytes from src into dst at offset, blocking
// until the HAL completes the write.
func WriteBuffer(d *Device, dst *Buffer, offset uint64, src []byte, size uint64) error {
	if d == nil || dst == nil {
		return fmt.Errorf("%w: nil device or buffer", ErrInvalidInput)
	}
	if err := d.checkReleased(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := dst.boundsCheck(offset, size); err != nil {
		return err
	}
	if err := d.hal.MemWrite(dst.addr+hal.DeviceAddress(offset), src, size); err != nil {
		return deviceFailure("WriteBuffer", err)
	}
	return nil
}

// CopyBuffer copies size bytes from src at srcOffset to dst at
// dstOffset, both in device memory, blocking until the HAL completes.
func CopyBuffer(d *Device, dst *Buffer, dstOffset uint64, src *Buffer, srcOffset, size uint64) error {
	if d == nil || dst == nil || src == nil {
		return fmt.Errorf("%w: nil device or buffer", ErrInvalidInput)
	}
	if err := d.checkReleased(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := dst.boundsCheck(dstOffset, size); err != nil {
		return err
	}
	if err := src.boundsCheck(srcOffset, size); err != nil {
		return err
	}
	dstAddr := dst.addr + hal.DeviceAddress(dstOffset)
	srcAddr := src.addr + hal.DeviceAddress(srcOffset)
	if err := d.hal.MemCopy(dstAddr, srcAddr, size); err != nil {
		return deviceFailure("CopyBuffer", err)
	}
	return nil
}

// RunKernel resolves name in program, builds ndrange and args exactly as
// CreateKernel would, and dispatches it inline, blocking until the HAL
// call returns.
func RunKernel(program *Program, name string, ndrange NDRange, args []Argument) error {
	if program == nil {
		return fmt.Errorf("%w: nil program", ErrInvalidInput)
	}

	// A zero work-group size is not rejected here: it fails as a
	// DeviceFailure once the HAL attempts the dispatch, matching
	// RunKernel's boundary behavior for the asynchronous path.
	entry, err := program.findKernel(name)
	if err != nil {
		return err
	}

	hals, err := translateArgs(args)
	if err != nil {
		return err
	}

	program.mu.Lock()
	defer program.mu.Unlock()
	if program.released {
		return ErrReleased
	}

	program.device.mu.Lock()
	defer program.device.mu.Unlock()

	if err := program.device.hal.KernelExec(program.handle, entry, ndrange.toHAL(), hals); err != nil {
		return deviceFailure("RunKernel", err)
	}
	return nil
}
