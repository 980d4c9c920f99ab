package software

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/clik/hal"
)

// Device is the software backend's hal.Device implementation.
type Device struct {
	arena *arena

	mu          sync.Mutex
	programs    map[hal.ProgramHandle]*program
	nextProgram uint64
}

type program struct {
	names []string
}

func newDevice(arenaSize uint64) (*Device, error) {
	a, err := newArena(arenaSize)
	if err != nil {
		return nil, err
	}
	return &Device{
		arena:    a,
		programs: make(map[hal.ProgramHandle]*program),
	}, nil
}

// ProgramLoad treats bytes as a UTF-8 manifest: one kernel name per
// non-blank line. There is no compiled binary format to validate beyond
// that — the software backend's whole point is standing in for a device
// ISA the spec leaves undefined.
func (d *Device) ProgramLoad(bytes []byte) (hal.ProgramHandle, error) {
	text := strings.TrimSpace(string(bytes))
	if text == "" {
		return hal.InvalidProgram, fmt.Errorf("software: %w: empty manifest", hal.ErrLoadFailed)
	}

	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	if len(names) == 0 {
		return hal.InvalidProgram, fmt.Errorf("software: %w: no kernel names in manifest", hal.ErrLoadFailed)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextProgram++
	h := hal.ProgramHandle(d.nextProgram)
	d.programs[h] = &program{names: names}
	hal.Logger().Info("program loaded", "backend", "software", "handle", uint64(h), "kernels", len(names))
	return h, nil
}

func (d *Device) ProgramFree(h hal.ProgramHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, h)
}

func (d *Device) ProgramFindKernel(h hal.ProgramHandle, name string) (hal.EntryPoint, error) {
	d.mu.Lock()
	p, ok := d.programs[h]
	d.mu.Unlock()
	if !ok {
		return hal.NoEntryPoint, fmt.Errorf("software: %w: unknown program handle", hal.ErrKernelNotFound)
	}
	for i, n := range p.names {
		if n == name {
			return hal.EntryPoint(i + 1), nil
		}
	}
	return hal.NoEntryPoint, nil
}

func (d *Device) MemAlloc(size, alignment uint64) (hal.DeviceAddress, error) {
	addr, err := d.arena.alloc(size, alignment)
	if err != nil {
		return hal.NullAddress, fmt.Errorf("software: %w: %v", hal.ErrAllocFailed, err)
	}
	return addr, nil
}

func (d *Device) MemFree(addr hal.DeviceAddress) {
	d.arena.free(addr)
}

func (d *Device) MemRead(dst []byte, src hal.DeviceAddress, size uint64) error {
	buf, err := d.arena.slice(src, size)
	if err != nil {
		return fmt.Errorf("software: %w: %v", hal.ErrDeviceFailure, err)
	}
	copy(dst, buf)
	return nil
}

func (d *Device) MemWrite(dst hal.DeviceAddress, src []byte, size uint64) error {
	buf, err := d.arena.slice(dst, size)
	if err != nil {
		return fmt.Errorf("software: %w: %v", hal.ErrDeviceFailure, err)
	}
	copy(buf, src[:size])
	return nil
}

func (d *Device) MemCopy(dst, src hal.DeviceAddress, size uint64) error {
	dstBuf, err := d.arena.slice(dst, size)
	if err != nil {
		return fmt.Errorf("software: %w: %v", hal.ErrDeviceFailure, err)
	}
	srcBuf, err := d.arena.slice(src, size)
	if err != nil {
		return fmt.Errorf("software: %w: %v", hal.ErrDeviceFailure, err)
	}
	copy(dstBuf, srcBuf)
	return nil
}

func (d *Device) KernelExec(h hal.ProgramHandle, entry hal.EntryPoint, ndrange hal.NDRange, args []hal.Arg) error {
	if entry == hal.NoEntryPoint {
		return fmt.Errorf("software: %w: null entry point", hal.ErrDeviceFailure)
	}
	if ndrange.WorkGroupSize() == 0 {
		return fmt.Errorf("software: %w: zero-size work-group", hal.ErrDeviceFailure)
	}

	d.mu.Lock()
	p, ok := d.programs[h]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("software: %w: unknown program handle", hal.ErrDeviceFailure)
	}

	idx := int(entry) - 1
	if idx < 0 || idx >= len(p.names) {
		return fmt.Errorf("software: %w: entry point out of range", hal.ErrDeviceFailure)
	}

	fn, ok := lookupKernel(p.names[idx])
	if !ok {
		return fmt.Errorf("software: %w: kernel %q has no registered implementation", hal.ErrDeviceFailure, p.names[idx])
	}
	hal.Logger().Debug("kernel dispatch", "backend", "software", "kernel", p.names[idx], "global", ndrange.Global, "local", ndrange.Local)
	if err := fn(d, ndrange, args); err != nil {
		return fmt.Errorf("software: %w: %v", hal.ErrDeviceFailure, err)
	}
	return nil
}

func (d *Device) Destroy() error {
	hal.Logger().Info("device destroyed", "backend", "software")
	return d.arena.close()
}
