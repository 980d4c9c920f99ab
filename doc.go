// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package clik is a minimal, portable compute runtime that drives a
// Hardware Abstraction Layer (HAL, see hal.Device) for a device capable
// of executing binary kernels over an N-dimensional index space.
//
// Two interchangeable surfaces sit over the same Device/Program/Kernel/
// Buffer object model:
//
//   - a synchronous surface (ReadBuffer, WriteBuffer, CopyBuffer,
//     RunKernel) where each call blocks until the device finishes the
//     requested work;
//   - an asynchronous surface (Queue.Enqueue*, Queue.Dispatch,
//     Queue.Wait) backed by a single-producer, single-consumer in-order
//     command queue with monotonic timestamps and a worker goroutine
//     that drops the device lock across HAL calls.
//
// A Device is obtained from CreateDevice, which looks up a registered
// hal.Backend by name (hal.RegisterBackend) and asks it for the device
// at DeviceOptions.Index (0 by default).
// Every other object is created from a Device (directly or through a
// Program) and must be released before its owning Device.
package clik
