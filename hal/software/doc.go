// Package software is an in-process reference HAL backend. It has no
// notion of a real device ISA: a "program" is a UTF-8 manifest of kernel
// names (one per line), and each name resolves to a Go callback looked up
// in the process-wide kernel registry populated by RegisterKernel.
//
// Device memory is a single anonymous mmap arena (see golang.org/x/sys/unix),
// carved into fixed-alignment blocks by a buddy allocator (hal/memory), so
// every buffer's bytes start at a page-aligned position in that region.
// The device address handed out for a buffer is its block offset plus
// one, so the address value itself is not a multiple of the alignment.
//
// This backend exists to make every operation in the HAL contract
// testable without a real compiled kernel binary or device driver.
package software
