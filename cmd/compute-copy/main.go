// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command compute-copy drives the HAL port directly, with no clik object
// model in between: it opens a native device library through hal/dlopen,
// allocates two buffers, writes a pattern into one, copies it into the
// other, and reads the result back for verification.
//
// CLIK_HAL_LIBRARY must name a shared library implementing the dlopen
// package's flat C ABI (see hal/dlopen/doc.go). There is no such library
// checked into this module; this command exists to show how a real HAL
// backend is driven without clik's bookkeeping, the way the software
// backend is driven internally by the clik package's own tests.
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/clik/hal"
	"github.com/gogpu/clik/hal/dlopen"
)

const bufferLen = 1024 // uint32 elements

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	libPath := os.Getenv("CLIK_HAL_LIBRARY")
	if libPath == "" {
		return fmt.Errorf("CLIK_HAL_LIBRARY is not set; point it at a dlopen-ABI shared library")
	}

	fmt.Println("=== Direct HAL: Buffer Copy ===")
	fmt.Println()

	fmt.Print("1. Opening backend... ")
	backend, err := dlopen.Open(libPath)
	if err != nil {
		return fmt.Errorf("dlopen.Open: %w", err)
	}
	defer backend.Close()
	fmt.Printf("OK (%s)\n", backend.PlatformName())

	fmt.Print("2. Creating device 0... ")
	device, err := backend.DeviceCreate(0)
	if err != nil {
		return fmt.Errorf("DeviceCreate: %w", err)
	}
	defer device.Destroy()
	fmt.Println("OK")

	const bufSize = uint64(bufferLen * 4)

	fmt.Print("3. Allocating buffers... ")
	src, err := device.MemAlloc(bufSize, 4096)
	if err != nil || src == hal.NullAddress {
		return fmt.Errorf("MemAlloc(src): %w", err)
	}
	defer device.MemFree(src)

	dst, err := device.MemAlloc(bufSize, 4096)
	if err != nil || dst == hal.NullAddress {
		return fmt.Errorf("MemAlloc(dst): %w", err)
	}
	defer device.MemFree(dst)
	fmt.Println("OK")

	fmt.Printf("4. Input: %d uint32 elements\n", bufferLen)
	srcData := make([]byte, bufSize)
	for i := uint32(0); i < bufferLen; i++ {
		srcData[i*4+0] = byte(i)
		srcData[i*4+1] = byte(i >> 8)
		srcData[i*4+2] = byte(i >> 16)
		srcData[i*4+3] = byte(i >> 24)
	}

	fmt.Print("5. Writing, copying, reading back... ")
	if err := device.MemWrite(src, srcData, bufSize); err != nil {
		return fmt.Errorf("MemWrite: %w", err)
	}
	if err := device.MemCopy(dst, src, bufSize); err != nil {
		return fmt.Errorf("MemCopy: %w", err)
	}
	result := make([]byte, bufSize)
	if err := device.MemRead(result, dst, bufSize); err != nil {
		return fmt.Errorf("MemRead: %w", err)
	}
	fmt.Println("OK")

	for i := range result {
		if result[i] != srcData[i] {
			return fmt.Errorf("result mismatch at byte %d: got %d, want %d", i, result[i], srcData[i])
		}
	}
	fmt.Println()
	fmt.Println("PASS: destination buffer matches source")
	return nil
}
