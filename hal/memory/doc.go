// Package memory provides a buddy allocator for carving fixed-alignment
// device-address ranges out of a single backing arena.
//
// hal/software uses it to hand out the device addresses returned from
// mem_alloc: the arena is a flat byte slice, and a BuddyBlock's Offset is
// the block's position in that slice; the device address handed out is
// that Offset plus one, so that offset 0 never equals hal.NullAddress. Splitting and merging keep
// allocation and free at O(log n) without per-allocation bookkeeping
// outside the allocator itself.
package memory
