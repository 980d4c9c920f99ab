package clik

import (
	"fmt"
	"sync"

	"github.com/gogpu/clik/hal"
)

// DeviceOptions selects and configures the HAL backend a Device drives.
// HAL acquisition is configured out-of-band (spec.md treats the loader
// as external), so this struct is clik's equivalent of the teacher's
// descriptor-struct construction pattern: a name looked up through
// hal.GetBackend, plus a device index within that backend.
type DeviceOptions struct {
	// Backend is the name a backend self-registered under (e.g.
	// "software"). Empty defaults to "software".
	Backend string
	// Index selects which of the backend's devices to create. Defaults
	// to 0.
	Index int
}

// Device is a live connection to one HAL device, plus the single Command
// Queue it owns for its lifetime. All object-lifecycle operations and
// queue mutations on a Device are serialized by mu.
type Device struct {
	mu       sync.Mutex
	hal      hal.Device
	queue    *Queue
	released bool
}

// CreateDevice obtains a HAL backend by name and asks it to create
// device Index, starting that device's Command Queue worker goroutine.
func CreateDevice(opts DeviceOptions) (*Device, error) {
	name := opts.Backend
	if name == "" {
		name = "software"
	}

	backend, ok := hal.GetBackend(name)
	if !ok {
		return nil, fmt.Errorf("clik: backend %q: %w", name, hal.ErrBackendNotFound)
	}
	if backend.NumDevices() <= 0 {
		return nil, fmt.Errorf("clik: backend %q: %w", name, hal.ErrNoDevices)
	}

	halDevice, err := backend.DeviceCreate(opts.Index)
	if err != nil {
		return nil, fmt.Errorf("clik: create device: %w", err)
	}

	d := &Device{hal: halDevice}
	d.queue = newQueue(d)
	hal.Logger().Info("device created", "backend", name, "index", opts.Index)
	return d, nil
}

// Queue returns the device's single Command Queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// Release shuts down the device's queue (draining any dispatched work
// and joining the worker), asks the HAL to destroy the device handle,
// and marks the Device unusable. Programs, Kernels, and Buffers not
// already released by the caller are not tracked and are not freed here
// — a caller-side leak the scoped-acquisition pattern is expected to
// avoid.
func (d *Device) Release() error {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return nil
	}
	d.released = true
	halDevice := d.hal
	d.mu.Unlock()

	d.queue.shutdown()

	if err := halDevice.Destroy(); err != nil {
		return fmt.Errorf("clik: destroy device: %w", err)
	}
	return nil
}

func (d *Device) checkReleased() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	return nil
}
