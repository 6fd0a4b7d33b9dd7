package hostdev

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Client issues requests against a Serve session from the other end of the
// same connection. It exists mainly so tests can drive a binding without
// hand-rolling the frame format twice.
type Client struct {
	rw io.ReadWriter
}

// NewClient wraps an already-open connection. The session's Open happens
// server-side as soon as the binding accepts the connection; Client never
// calls Open or Release itself.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

// Write sends p as one write request and returns an error if the device
// rejected it.
func (c *Client) Write(p []byte) error {
	if err := c.sendRequest(OpWrite, p); err != nil {
		return err
	}
	status, payload, err := c.readResponse()
	if err != nil {
		return err
	}
	if status != StatusOK {
		return fmt.Errorf("hostdev: write rejected: %s", payload)
	}
	return nil
}

// Read requests n bytes back from the device and returns whatever it
// returned.
func (c *Client) Read(n int) ([]byte, error) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(n))
	if err := c.sendRequest(OpRead, lenBuf[:]); err != nil {
		return nil, err
	}
	status, payload, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, fmt.Errorf("hostdev: read rejected: %s", payload)
	}
	return payload, nil
}

func (c *Client) sendRequest(op Op, payload []byte) error {
	var header [5]byte
	header[0] = byte(op)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(payload)))
	if _, err := c.rw.Write(header[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := c.rw.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readResponse() (Status, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		return 0, nil, err
	}
	status := Status(header[0])
	n := binary.BigEndian.Uint32(header[1:5])
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.rw, payload); err != nil {
			return 0, nil, err
		}
	}
	return status, payload, nil
}
