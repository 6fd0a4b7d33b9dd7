// Package cipher implements the PRESENT-80 lightweight block cipher: an
// 80-bit-key, 64-bit-block SP-network built from a nibble substitution
// box, a fixed bit permutation, and a key schedule that rotates,
// substitutes and perturbs an 80-bit register once per round.
//
// The package exposes a single allocation-light entry point, Encrypt, plus
// the internal primitives (KeySchedule, SboxLayer, PboxLayer) broken out
// so that their individual properties can be tested in isolation. There is
// no decryption: PRESENT-80 here is used strictly forward, one block at a
// time, with no chaining mode.
package cipher

import "encoding/binary"

const (
	// KeySize is the PRESENT-80 key size in bytes (80 bits).
	KeySize = 10
	// BlockSize is the PRESENT-80 block size in bytes (64 bits).
	BlockSize = 8
	// TotalRounds is the number of round-key additions performed by
	// Encrypt: 31 full rounds (substitution + permutation + key addition)
	// followed by one final key addition with no substitution or
	// permutation.
	TotalRounds = 32
)

// sbox is the 4-bit-to-4-bit PRESENT substitution table.
var sbox = [16]byte{0xC, 0x5, 0x6, 0xB, 0x9, 0x0, 0xA, 0xD, 0x3, 0xE, 0xF, 0x8, 0x4, 0x7, 0x1, 0x2}

// pbox[b] is the destination bit index of source bit b in the 64-bit
// permutation layer.
var pbox = [64]byte{
	0, 16, 32, 48, 1, 17, 33, 49, 2, 18, 34, 50, 3, 19, 35, 51,
	4, 20, 36, 52, 5, 21, 37, 53, 6, 22, 38, 54, 7, 23, 39, 55,
	8, 24, 40, 56, 9, 25, 41, 57, 10, 26, 42, 58, 11, 27, 43, 59,
	12, 28, 44, 60, 13, 29, 45, 61, 14, 30, 46, 62, 15, 31, 47, 63,
}

// RoundKeys holds the 32 eight-byte round keys produced by KeySchedule.
type RoundKeys [TotalRounds][BlockSize]byte

// Encrypt encrypts a single 8-byte block under a 10-byte key. It returns
// BlockSizeError or KeySizeError if the inputs are not exactly BlockSize
// and KeySize bytes respectively; PRESENT-80 as specified here has no
// other failure mode.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}
	if len(plaintext) != BlockSize {
		return nil, BlockSizeError(len(plaintext))
	}

	var k [KeySize]byte
	copy(k[:], key)
	var state [BlockSize]byte
	copy(state[:], plaintext)

	roundKeys := KeySchedule(k)

	for i := 1; i <= TotalRounds; i++ {
		addRoundKey(&state, &roundKeys[i-1])
		if i < TotalRounds {
			SboxLayer(&state)
			PboxLayer(&state)
		}
	}

	out := make([]byte, BlockSize)
	copy(out, state[:])
	return out, nil
}

// KeySchedule evolves the 80-bit key register across TotalRounds-1
// rotate/substitute/counter-xor steps and returns the 32 resulting
// 8-byte round keys, round_keys[0] being the unrotated leftmost 8 bytes
// of the key itself.
func KeySchedule(key [KeySize]byte) RoundKeys {
	var roundKeys RoundKeys
	reg := key

	copy(roundKeys[0][:], reg[:BlockSize])

	for i := 1; i < TotalRounds; i++ {
		reg = rotateRight80(reg, 19)

		reg[0] = (sbox[reg[0]>>4] << 4) | (reg[0] & 0x0F)

		var counter [4]byte
		binary.BigEndian.PutUint32(counter[:], uint32(i)<<15)
		const xorStart = KeySize - 1 - 3 // byte 6: the 3 bytes preceding the last byte
		for j := 0; j < 3; j++ {
			reg[xorStart+j] ^= counter[j]
		}

		copy(roundKeys[i][:], reg[:BlockSize])
	}

	return roundKeys
}

// SboxLayer substitutes every nibble of state independently through sbox.
func SboxLayer(state *[BlockSize]byte) {
	for i, b := range state {
		state[i] = (sbox[b>>4] << 4) | sbox[b&0x0F]
	}
}

// PboxLayer applies the fixed 64-bit PRESENT permutation to state. Bit 0
// is the least significant bit of state[7]; bit 63 is the most
// significant bit of state[0]. Source bit b moves to destination bit
// pbox[b].
func PboxLayer(state *[BlockSize]byte) {
	var out [BlockSize]byte
	for b := 0; b < 64; b++ {
		if bitAt(state, b) == 1 {
			setBit(&out, int(pbox[b]))
		}
	}
	*state = out
}

func bitAt(state *[BlockSize]byte, b int) byte {
	byteIdx := BlockSize - 1 - b/8
	return (state[byteIdx] >> uint(b%8)) & 1
}

func setBit(state *[BlockSize]byte, b int) {
	byteIdx := BlockSize - 1 - b/8
	state[byteIdx] |= 1 << uint(b%8)
}

func addRoundKey(state *[BlockSize]byte, key *[BlockSize]byte) {
	for i := range state {
		state[i] ^= key[i]
	}
}

// rotateRight80 rotates the 80-bit register right by n bits, treating
// key[0] as the most significant byte; bits that fall off the low end
// wrap around to the high end.
func rotateRight80(key [KeySize]byte, n int) [KeySize]byte {
	const width = KeySize * 8
	n %= width
	if n == 0 {
		return key
	}

	var out [KeySize]byte
	for i := 0; i < width; i++ {
		src := (i - n + width) % width
		if regBitAt(&key, src) == 1 {
			regSetBit(&out, i)
		}
	}
	return out
}

// regBitAt/regSetBit index the key register with bit 0 as the most
// significant bit of key[0] (the natural reading of "K[0] is the most
// significant byte").
func regBitAt(key *[KeySize]byte, i int) byte {
	byteIdx := i / 8
	return (key[byteIdx] >> uint(7-i%8)) & 1
}

func regSetBit(key *[KeySize]byte, i int) {
	byteIdx := i / 8
	key[byteIdx] |= 1 << uint(7-i%8)
}

// DebugDump renders b as space-separated uppercase hex byte pairs,
// wrapped into rows of width bytes, in the style the original kernel
// module used when dumping a key or block to the kernel log.
func DebugDump(label string, b []byte, width int) string {
	if width <= 0 {
		width = len(b)
	}
	if len(b) == 0 {
		return label + ": <empty>"
	}

	out := label + ":\n"
	for i := 0; i < len(b); i += width {
		end := i + width
		if end > len(b) {
			end = len(b)
		}
		row := b[i:end]
		out += "| "
		for j, c := range row {
			out += hexByte(c)
			if j != len(row)-1 {
				out += " "
			}
		}
		out += " |\n"
	}
	return out[:len(out)-1]
}

const hexDigits = "0123456789ABCDEF"

func hexByte(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}
