package software

import (
	"fmt"

	"github.com/gogpu/clik/hal"
)

// Backend is the software hal.Backend. It reports exactly one device;
// each DeviceCreate call builds a fresh one with its own arena.
type Backend struct {
	// ArenaSize overrides the default 64 MiB arena size when non-zero.
	ArenaSize uint64
}

func (b Backend) NumDevices() int { return 1 }

func (b Backend) PlatformName() string { return "software" }

func (b Backend) DeviceCreate(index int) (hal.Device, error) {
	if index != 0 {
		return nil, fmt.Errorf("software: no device at index %d", index)
	}
	size := b.ArenaSize
	if size == 0 {
		size = defaultArenaSize
	}
	return newDevice(size)
}

func init() {
	hal.RegisterBackend("software", Backend{})
}
