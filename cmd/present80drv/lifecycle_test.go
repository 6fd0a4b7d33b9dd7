package main

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/present80/present80drv/device"
	"github.com/present80/present80drv/hostdev"
)

// TestStartStop_EndToEndOverSockets exercises the full wiring Start/Stop
// build: a real device registry served over real Unix domain sockets under
// a temp directory, driven by two dialed connections the way an external
// client would use them.
func TestStartStop_EndToEndOverSockets(t *testing.T) {
	root := t.TempDir()
	registry := device.NewDeviceRegistry()

	binding, err := hostdev.Start(root, registry.Key, registry.Encryption)
	require.NoError(t, err)
	defer Stop(binding, registry)

	keyConn, err := net.Dial("unix", filepath.Join(root, hostdev.KeyDeviceName))
	require.NoError(t, err)
	defer keyConn.Close()

	encConn, err := net.Dial("unix", filepath.Join(root, hostdev.EncryptDeviceName))
	require.NoError(t, err)
	defer encConn.Close()

	keyClient := hostdev.NewClient(keyConn)
	encClient := hostdev.NewClient(encConn)

	require.NoError(t, keyClient.Write(make([]byte, 10)))
	require.NoError(t, encClient.Write(make([]byte, 8)))

	ct, err := encClient.Read(8)
	require.NoError(t, err)
	assert.Equal(t, "5579c1387b228445", hexLower(ct))
}

func hexLower(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0F]
	}
	return string(out)
}
