package cipher

import "fmt"

// KeySizeError represents an error when the PRESENT-80 key size is invalid.
// Keys must be exactly 10 bytes (80 bits).
type KeySizeError int

// Error returns a formatted error message describing the invalid key size.
func (e KeySizeError) Error() string {
	return fmt.Sprintf("cipher/present80: invalid key size %d, must be %d bytes", int(e), KeySize)
}

// BlockSizeError represents an error when the PRESENT-80 block size is invalid.
// Blocks must be exactly 8 bytes (64 bits); PRESENT-80 only ever operates on
// a single block, there is no chaining mode.
type BlockSizeError int

// Error returns a formatted error message describing the invalid block size.
func (e BlockSizeError) Error() string {
	return fmt.Sprintf("cipher/present80: invalid block size %d, must be %d bytes", int(e), BlockSize)
}
