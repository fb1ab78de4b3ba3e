package jit

// Memory layout of a VM value and of the call frame the runtime dispatcher
// establishes before first entry. Every cached slot commits into this layout.
const (
	// ValueSize is the stride of one tagged value: a type sub-word followed
	// by a payload sub-word.
	ValueSize = 8

	// WordSize is the width of each sub-word.
	WordSize = 4

	// PayloadOffset is the offset of the payload sub-word within a value.
	PayloadOffset = 4
)

// Call frame field offsets, in bytes from the frame pointer. Argument slots
// start at FrameOffArgs; local slots follow directly after the arguments.
const (
	FrameOffSrc      = 0
	FrameOffUsr      = 8
	FrameOffDot      = 16
	FrameOffRet      = 24
	FrameOffStackTop = 32
	FrameOffArgs     = 40
)
