package hostdev

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOps is a minimal in-memory Operations double, standing in for
// device.Device so Serve/Client can be tested without pulling in the
// cipher engine.
type fakeOps struct {
	mu       sync.Mutex
	opened   bool
	released bool
	buf      []byte
	openErr  error
	readErr  error
}

func (f *fakeOps) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeOps) Write(p []byte, offset int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append([]byte(nil), p...)
	return len(p), nil
}

func (f *fakeOps) Read(dest []byte, offset int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(dest, f.buf)
	return n, nil
}

func (f *fakeOps) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

func TestServe_WriteThenReadRoundTrips(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	ops := &fakeOps{}

	done := make(chan error, 1)
	go func() { done <- Serve(serverConn, ops) }()

	client := NewClient(clientConn)
	require.NoError(t, client.Write([]byte("plaintext")))

	got, err := client.Read(len("plaintext"))
	require.NoError(t, err)
	assert.Equal(t, "plaintext", string(got))

	clientConn.Close()
	require.NoError(t, <-done)

	assert.True(t, ops.opened)
	assert.True(t, ops.released)
}

func TestServe_OpenFailureReportsErrorAndNeverReleases(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	ops := &fakeOps{openErr: assert.AnError}

	done := make(chan error, 1)
	go func() { done <- Serve(serverConn, ops) }()

	_, _, err := NewClient(clientConn).readResponseForTest()
	require.NoError(t, err)

	clientConn.Close()
	<-done

	assert.False(t, ops.released)
}

// readResponseForTest exposes the unexported readResponse for the
// single negative test above without widening the Client API.
func (c *Client) readResponseForTest() (Status, []byte, error) {
	return c.readResponse()
}

func TestServe_ReadErrorIsReportedNotFatal(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	ops := &fakeOps{readErr: assert.AnError}

	done := make(chan error, 1)
	go func() { done <- Serve(serverConn, ops) }()

	client := NewClient(clientConn)
	require.NoError(t, client.Write([]byte("x")))

	_, err := client.Read(1)
	require.Error(t, err)

	clientConn.Close()
	require.NoError(t, <-done)
}
