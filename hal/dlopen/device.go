package dlopen

import (
	"fmt"
	"runtime"

	"github.com/gogpu/clik/hal"
)

// Device adapts one native device handle exposed by a loaded library to
// hal.Device.
type Device struct {
	lib    *library
	handle uint64
}

func (d *Device) ProgramLoad(bytes []byte) (hal.ProgramHandle, error) {
	h, err := d.lib.programLoad(d.handle, bytes)
	if err != nil {
		return hal.InvalidProgram, fmt.Errorf("dlopen: %w: %v", hal.ErrLoadFailed, err)
	}
	if h == 0 {
		return hal.InvalidProgram, hal.ErrLoadFailed
	}
	return hal.ProgramHandle(h), nil
}

func (d *Device) ProgramFree(h hal.ProgramHandle) {
	d.lib.programFree(d.handle, uint64(h))
}

func (d *Device) ProgramFindKernel(h hal.ProgramHandle, name string) (hal.EntryPoint, error) {
	entry, err := d.lib.programFindKernel(d.handle, uint64(h), name)
	if err != nil {
		return hal.NoEntryPoint, err
	}
	return hal.EntryPoint(entry), nil
}

func (d *Device) MemAlloc(size, alignment uint64) (hal.DeviceAddress, error) {
	addr, err := d.lib.memAlloc(d.handle, size, alignment)
	if err != nil {
		return hal.NullAddress, fmt.Errorf("dlopen: %w: %v", hal.ErrAllocFailed, err)
	}
	if addr == 0 {
		return hal.NullAddress, hal.ErrAllocFailed
	}
	return hal.DeviceAddress(addr), nil
}

func (d *Device) MemFree(addr hal.DeviceAddress) {
	d.lib.memFree(d.handle, uint64(addr))
}

func (d *Device) MemRead(dst []byte, src hal.DeviceAddress, size uint64) error {
	if err := d.lib.memRead(d.handle, dst, uint64(src), size); err != nil {
		return fmt.Errorf("dlopen: %w: %v", hal.ErrDeviceFailure, err)
	}
	return nil
}

func (d *Device) MemWrite(dst hal.DeviceAddress, src []byte, size uint64) error {
	if err := d.lib.memWrite(d.handle, uint64(dst), src, size); err != nil {
		return fmt.Errorf("dlopen: %w: %v", hal.ErrDeviceFailure, err)
	}
	return nil
}

func (d *Device) MemCopy(dst, src hal.DeviceAddress, size uint64) error {
	if err := d.lib.memCopy(d.handle, uint64(dst), uint64(src), size); err != nil {
		return fmt.Errorf("dlopen: %w: %v", hal.ErrDeviceFailure, err)
	}
	return nil
}

func (d *Device) KernelExec(program hal.ProgramHandle, entry hal.EntryPoint, ndrange hal.NDRange, args []hal.Arg) error {
	packedRange := packNDRange(ndrange)
	packedArgs, pinned := packArgs(args)

	err := d.lib.kernelExec(d.handle, uint64(program), uint64(entry), packedRange, packedArgs, uint32(len(args)), ndrange.Dims)
	runtime.KeepAlive(pinned) // kept alive for the duration of this synchronous call
	if err != nil {
		return fmt.Errorf("dlopen: %w: %v", hal.ErrDeviceFailure, err)
	}
	return nil
}

// Destroy is a no-op: the dlopen ABI has no device-teardown symbol, and
// the underlying library handle is released by closing the Backend, not
// by releasing an individual device.
func (d *Device) Destroy() error {
	return nil
}
