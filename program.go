package clik

import (
	"fmt"
	"sync"

	"github.com/gogpu/clik/hal"
)

// Program is a loaded kernel binary on a Device. The byte slice passed
// to CreateProgram is consumed at creation: the runtime retains no
// pointer into caller memory past return.
type Program struct {
	device   *Device
	mu       sync.Mutex
	handle   hal.ProgramHandle
	released bool
}

// CreateProgram ingests bytes as an opaque kernel binary. On HAL
// rejection it returns ErrLoadFailed and leaves no partial Program
// behind.
func CreateProgram(d *Device, bytes []byte) (*Program, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidInput)
	}
	if err := d.checkReleased(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	h, err := d.hal.ProgramLoad(bytes)
	if err != nil || h == hal.InvalidProgram {
		return nil, fmt.Errorf("clik: create program: %w", ErrLoadFailed)
	}

	return &Program{device: d, handle: h}, nil
}

// Release frees the program's HAL-owned handle. A Program must be
// released before its Device.
func (p *Program) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true

	p.device.mu.Lock()
	defer p.device.mu.Unlock()
	p.device.hal.ProgramFree(p.handle)
}

func (p *Program) findKernel(name string) (hal.EntryPoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return hal.NoEntryPoint, ErrReleased
	}

	p.device.mu.Lock()
	defer p.device.mu.Unlock()

	entry, err := p.device.hal.ProgramFindKernel(p.handle, name)
	if err != nil {
		return hal.NoEntryPoint, fmt.Errorf("clik: find kernel %q: %w", name, err)
	}
	if entry == hal.NoEntryPoint {
		return hal.NoEntryPoint, fmt.Errorf("clik: kernel %q: %w", name, ErrNotFound)
	}
	return entry, nil
}
