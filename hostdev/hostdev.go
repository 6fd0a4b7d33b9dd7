// Package hostdev adapts the device registry's Operations to a host-facing
// transport. The kernel module this protocol was distilled from registers
// the key and encryption buffers directly as character devices; Go has no
// equivalent of kernel::file::Operations, so the boundary is reconstructed
// here as a small framed protocol served over a net.Conn, with one
// connection standing in for one open file handle (open on accept, release
// on connection close).
package hostdev

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Operations is the host-facing vtable a binding dispatches onto: Open on
// session start, Write/Read for each request frame, Release on session end.
// *device.Device satisfies this interface without referencing it directly.
type Operations interface {
	Open() error
	Write(p []byte, offset int64) (int, error)
	Read(dest []byte, offset int64) (int, error)
	Release() error
}

// Op identifies which device operation a request frame carries.
type Op byte

const (
	OpWrite Op = 1
	OpRead  Op = 2
)

// Status identifies whether a response frame carries a payload or an error
// message in its place.
type Status byte

const (
	StatusOK    Status = 0
	StatusError Status = 1
)

// maxFrame bounds a single request payload. The largest request payload
// either device ever needs is KeySize (10) bytes; 256 leaves headroom
// without letting a misbehaving client force an unbounded allocation.
// Response payloads are not checked against it.
const maxFrame = 256

// request is the wire shape of one client call: a one-byte opcode, a
// four-byte big-endian length, and that many payload bytes. A read request's
// payload is a four-byte big-endian count of the bytes wanted back; Serve
// sizes the read buffer from it.
type request struct {
	op      Op
	payload []byte
}

func readRequest(r io.Reader) (request, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return request{}, err
	}

	op := Op(header[0])
	n := binary.BigEndian.Uint32(header[1:5])
	if n > maxFrame {
		return request{}, fmt.Errorf("hostdev: request payload too large: %d bytes", n)
	}

	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return request{}, err
		}
	}
	return request{op: op, payload: payload}, nil
}

func writeResponse(w io.Writer, status Status, payload []byte) error {
	var header [5]byte
	header[0] = byte(status)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// Serve runs one session to completion: Open, then dispatch request frames
// to Write/Read until the peer closes its write side or the connection
// errors, then Release. The offset carried by every dispatched call is
// always zero; the framed protocol has no notion of partial transfers,
// matching the fixed-size, whole-block semantics both devices enforce.
func Serve(conn io.ReadWriter, ops Operations) error {
	if err := ops.Open(); err != nil {
		return writeResponse(conn, StatusError, []byte(err.Error()))
	}
	defer ops.Release()

	for {
		req, err := readRequest(conn)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch req.op {
		case OpWrite:
			_, werr := ops.Write(req.payload, 0)
			if werr != nil {
				if err := writeResponse(conn, StatusError, []byte(werr.Error())); err != nil {
					return err
				}
				continue
			}
			if err := writeResponse(conn, StatusOK, nil); err != nil {
				return err
			}

		case OpRead:
			var want uint32
			if len(req.payload) >= 4 {
				want = binary.BigEndian.Uint32(req.payload[:4])
			}
			dest := make([]byte, want)
			n, rerr := ops.Read(dest, 0)
			if rerr != nil {
				if err := writeResponse(conn, StatusError, []byte(rerr.Error())); err != nil {
					return err
				}
				continue
			}
			if err := writeResponse(conn, StatusOK, dest[:n]); err != nil {
				return err
			}

		default:
			if err := writeResponse(conn, StatusError, []byte(fmt.Sprintf("hostdev: unknown opcode %d", req.op))); err != nil {
				return err
			}
		}
	}
}
