package clik

import "github.com/gogpu/clik/hal"

// NDRange describes a 1-to-3-dimensional index space over which a kernel
// runs. Dims selects how many of the three slots are significant; for
// i >= Dims the convention is Offsets[i]=0, Global[i]=1, Local[i]=1, and
// NewNDRange fills those in for you.
type NDRange struct {
	Offsets [3]uint64
	Global  [3]uint64
	Local   [3]uint64
	Dims    uint32
}

// NewNDRange builds a fully general 1-, 2-, or 3-dimensional range.
// offsets/global/local must each have exactly dims entries; higher slots
// are filled with the {0, 1, 1} defaults.
func NewNDRange(dims uint32, offsets, global, local []uint64) NDRange {
	r := NDRange{Dims: dims}
	for i := 0; i < 3; i++ {
		r.Global[i] = 1
		r.Local[i] = 1
	}
	for i := uint32(0); i < dims && i < 3; i++ {
		r.Offsets[i] = offsets[i]
		r.Global[i] = global[i]
		r.Local[i] = local[i]
	}
	return r
}

// NewNDRange1D is a convenience constructor for the common 1-D case.
func NewNDRange1D(globalSize, localSize uint64) NDRange {
	return NewNDRange(1, []uint64{0}, []uint64{globalSize}, []uint64{localSize})
}

// NewNDRange2D is a convenience constructor for the common 2-D case.
func NewNDRange2D(globalX, globalY, localX, localY uint64) NDRange {
	return NewNDRange(2, []uint64{0, 0}, []uint64{globalX, globalY}, []uint64{localX, localY})
}

// WorkGroupSize returns the product of Local[i] across all three slots.
// A zero result means no work can be dispatched.
func (r NDRange) WorkGroupSize() uint64 {
	return r.Local[0] * r.Local[1] * r.Local[2]
}

func (r NDRange) toHAL() hal.NDRange {
	return hal.NDRange{
		Offsets: r.Offsets,
		Global:  r.Global,
		Local:   r.Local,
		Dims:    r.Dims,
	}
}
