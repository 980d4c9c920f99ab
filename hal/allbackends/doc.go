// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package allbackends imports every self-registering HAL backend.
//
// Import this package for side effects to register the software backend:
//
//	import (
//		_ "github.com/gogpu/clik/hal/allbackends"
//	)
//
// This registers:
//   - software backend (all platforms, in-process reference device)
//
// hal/dlopen is not registered by this import: it adapts a native shared
// library whose path is only known at runtime, so it has no init() to
// run. Wire it up explicitly instead:
//
//	backend, err := dlopen.Open("/path/to/libclikhal.so")
//	if err != nil {
//		panic(err)
//	}
//	hal.RegisterBackend("mydevice", backend)
//
// After importing, use hal.GetBackend or clik.CreateDevice (which defaults
// to the software backend) to obtain a device.
//
// Example usage:
//
//	import (
//		_ "github.com/gogpu/clik/hal/allbackends"
//		"github.com/gogpu/clik"
//	)
//
//	func main() {
//		dev, err := clik.CreateDevice(clik.DeviceOptions{Backend: "software"})
//		if err != nil {
//			panic(err)
//		}
//		defer dev.Release()
//	}
package allbackends
