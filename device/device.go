package device

import "github.com/present80/present80drv/cipher"

// Open acquires exclusive access to the device. It fails with BusyError
// if another handle already holds it open. A successful Open zeroes both
// the input and output buffers, so nothing survives from a previous
// session.
func (d *Device) Open() error {
	inner := d.ownInner()

	inner.mu.Lock()
	defer inner.mu.Unlock()

	if inner.isInUse {
		return BusyError{Role: d.role}
	}

	inner.isInUse = true
	inner.inBuffer = [cipher.KeySize]byte{}
	inner.inLen = 0
	inner.outBuffer = [cipher.BlockSize]byte{}
	inner.outLen = 0

	return nil
}

// Write deposits bytes into the device's input buffer. offset must be
// zero (no partial writes); the write must be exactly KeySize bytes for
// the key device or exactly BlockSize bytes for the encryption device.
// A failed write leaves the input buffer unchanged.
func (d *Device) Write(p []byte, offset int64) (int, error) {
	if offset != 0 {
		return 0, InvalidError{Role: d.role, Reason: "writes must start at offset 0"}
	}

	required := d.requiredWriteLen()
	if len(p) != required {
		return 0, InvalidError{Role: d.role, Reason: "write must be exactly the device's block size"}
	}

	inner := d.ownInner()
	inner.mu.Lock()
	defer inner.mu.Unlock()

	copy(inner.inBuffer[:required], p)
	inner.inLen = required

	return required, nil
}

// Read is only valid on the encryption device; the key device is
// write-only and returns PermissionError. offset must be zero: each read
// copies up to len(dest) bytes of the 8-byte ciphertext, starting from its
// first byte, and returns the number copied.
//
// Read lazily recomputes the ciphertext from whatever key and plaintext
// are currently resident, acquiring the encryption device's mutex first
// and then the key device's mutex, in that fixed order, to avoid
// deadlocking against a concurrent key write or key-device lifecycle
// operation.
func (d *Device) Read(dest []byte, offset int64) (int, error) {
	if d.role == RoleKey {
		return 0, PermissionError{Role: RoleKey}
	}
	if offset != 0 {
		return 0, InvalidError{Role: d.role, Reason: "reads must start at offset 0"}
	}

	d.encInner.mu.Lock()
	defer d.encInner.mu.Unlock()

	d.keyInner.mu.Lock()
	ciphertext, err := cipher.Encrypt(d.keyInner.inBuffer[:cipher.KeySize], d.encInner.inBuffer[:cipher.BlockSize])
	d.keyInner.mu.Unlock()

	if err != nil {
		return 0, ResourceError{Err: err}
	}

	copy(d.encInner.outBuffer[:], ciphertext)
	d.encInner.outLen = cipher.BlockSize

	n := copy(dest, d.encInner.outBuffer[:d.encInner.outLen])
	return n, nil
}

// Release relinquishes the handle's exclusive hold on the device. Buffers
// are not cleared here; they are zeroed on the next Open.
func (d *Device) Release() error {
	inner := d.ownInner()

	inner.mu.Lock()
	defer inner.mu.Unlock()

	inner.isInUse = false
	return nil
}
