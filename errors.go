package duotier

import "errors"

var (
	// ErrRegionTooSmall is returned by New when the supplied buffer
	// cannot hold even one minimum-size chunk.
	ErrRegionTooSmall = errors.New("duotier: region too small")

	// ErrInvalidConfig is returned by New when the supplied
	// configuration fails validation (bad slab class table, negative
	// budget, unknown checksum mode).
	ErrInvalidConfig = errors.New("duotier: invalid configuration")

	// ErrOutOfMemory is returned by Alloc when neither tier can satisfy a
	// request.
	ErrOutOfMemory = errors.New("duotier: out of memory")
)
