// Package device implements the two-device coordination protocol that
// binds a written PRESENT-80 key to a written plaintext block and serves
// the resulting ciphertext with single-writer/single-reader discipline.
//
// Two roles exist: the key device (write-only, holds the 10-byte key) and
// the encryption device (read/write, holds the 8-byte plaintext and, on
// read, the freshly computed 8-byte ciphertext). Both Device values for a
// given DeviceRegistry share the same pair of mutex-guarded DeviceInner
// records, so that the encryption device's read path can always see
// whatever key the key device currently holds.
package device

import (
	"sync"

	"github.com/present80/present80drv/cipher"
)

// Role identifies which of the two devices a Device value represents.
type Role int

const (
	// RoleKey is the write-only device that holds the 10-byte key.
	RoleKey Role = iota
	// RoleEncryption is the read/write device that holds the 8-byte
	// plaintext and serves the 8-byte ciphertext on read.
	RoleEncryption
)

// String renders the role the way it appears in the registered device
// names (present80_key, present80_encrypt).
func (r Role) String() string {
	switch r {
	case RoleKey:
		return "key"
	case RoleEncryption:
		return "encrypt"
	default:
		return "unknown"
	}
}

// DeviceInner is the mutable state shared by both Device wrappers for one
// role: whether a handle currently holds the device open, and its fixed
// capacity input/output buffers. It is guarded by its own mutex and never
// copied.
type DeviceInner struct {
	mu        sync.Mutex
	isInUse   bool
	inBuffer  [cipher.KeySize]byte // capacity 10; the encryption device only ever uses the first 8
	inLen     int
	outBuffer [cipher.BlockSize]byte
	outLen    int
}

// InUse reports whether the device currently has an outstanding opener.
// It takes the inner mutex, so the result is a snapshot, not a guarantee.
func (i *DeviceInner) InUse() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.isInUse
}

// Device is one of the two roles backed by a DeviceRegistry's shared
// inner state. Both Device values see both inners so that the encryption
// device's read path can reach the key device's buffer without the two
// devices embedding one another.
type Device struct {
	role     Role
	keyInner *DeviceInner
	encInner *DeviceInner
}

// Role reports which role this Device value was created for.
func (d *Device) Role() Role { return d.role }

func (d *Device) ownInner() *DeviceInner {
	if d.role == RoleKey {
		return d.keyInner
	}
	return d.encInner
}

func (d *Device) requiredWriteLen() int {
	if d.role == RoleKey {
		return cipher.KeySize
	}
	return cipher.BlockSize
}

// DeviceRegistry owns the pair of DeviceInner records and the two Device
// wrappers bound to them, pinned in memory for the lifetime of the
// module. Dropping it (Close) tears down both registrations; no state
// survives.
type DeviceRegistry struct {
	Key        *Device
	Encryption *Device

	keyInner *DeviceInner
	encInner *DeviceInner
}

// NewDeviceRegistry creates both device inners and the two Device
// wrappers bound to them. It corresponds to the module init callback
// registering both character devices.
func NewDeviceRegistry() *DeviceRegistry {
	keyInner := &DeviceInner{}
	encInner := &DeviceInner{}

	reg := &DeviceRegistry{
		keyInner: keyInner,
		encInner: encInner,
	}
	reg.Key = &Device{role: RoleKey, keyInner: keyInner, encInner: encInner}
	reg.Encryption = &Device{role: RoleEncryption, keyInner: keyInner, encInner: encInner}
	return reg
}

// Close tears down both device registrations. No per-device state
// survives a Close; a registry must not be used again afterward.
func (r *DeviceRegistry) Close() error {
	for _, inner := range []*DeviceInner{r.keyInner, r.encInner} {
		inner.mu.Lock()
		inner.isInUse = false
		inner.inBuffer = [cipher.KeySize]byte{}
		inner.inLen = 0
		inner.outBuffer = [cipher.BlockSize]byte{}
		inner.outLen = 0
		inner.mu.Unlock()
	}

	return nil
}
