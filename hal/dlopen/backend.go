package dlopen

import (
	"fmt"

	"github.com/go-webgpu/goffi/ffi"

	"github.com/gogpu/clik/hal"
)

// Backend adapts one loaded native library to hal.Backend.
type Backend struct {
	lib  *library
	name string
}

// Open loads the shared library at path and queries it once for its
// device count and platform name. Unlike hal/software, this backend is
// not self-registering: callers that want it discoverable through
// hal.GetBackend must call hal.RegisterBackend themselves once Open
// succeeds, since the library path is only known at runtime.
func Open(path string) (*Backend, error) {
	lib, err := open(path)
	if err != nil {
		return nil, err
	}
	name := lib.platformName()
	hal.Logger().Info("library opened", "backend", "dlopen", "path", path, "platform", name, "devices", lib.numDevices())
	return &Backend{lib: lib, name: name}, nil
}

func (b *Backend) NumDevices() int {
	return int(b.lib.numDevices())
}

func (b *Backend) PlatformName() string {
	if b.name != "" {
		return b.name
	}
	return "dlopen"
}

func (b *Backend) DeviceCreate(index int) (hal.Device, error) {
	handle, err := b.lib.deviceCreate(uint32(index))
	if err != nil {
		return nil, fmt.Errorf("dlopen: device_create(%d): %w", index, err)
	}
	if handle == 0 {
		return nil, fmt.Errorf("dlopen: device_create(%d): %w", index, hal.ErrNoDevices)
	}
	return &Device{lib: b.lib, handle: handle}, nil
}

// Close unloads the underlying shared library. Call it only after every
// Device obtained from this Backend has been released.
func (b *Backend) Close() error {
	if b.lib == nil || b.lib.handle == nil {
		return nil
	}
	hal.Logger().Info("library closed", "backend", "dlopen", "platform", b.PlatformName())
	return ffi.FreeLibrary(b.lib.handle)
}
