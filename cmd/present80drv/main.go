// Command present80drv hosts the PRESENT-80 key/encrypt device pair over a
// pair of Unix domain sockets and offers a genkey subcommand for producing
// fresh 80-bit keys. It plays the role the kernel module's init/exit_module
// callbacks play for the original driver: Start wires up both devices and
// begins serving, Stop tears them down.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/present80/present80drv/device"
	"github.com/present80/present80drv/hostdev"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "genkey" {
		runGenkey(os.Args[2:])
		return
	}

	var (
		deviceRoot = flag.String("device-root", "/tmp/present80", "directory under which the key and encrypt sockets are created")
		verbose    = flag.Bool("v", false, "add microsecond timestamps to log output")
	)
	flag.Parse()

	if err := Start(*deviceRoot, *verbose); err != nil {
		log.Fatalf("present80drv: %v", err)
	}
}

// Start registers the device registry and binds both sockets under root,
// then blocks until an interrupt or termination signal arrives, at which
// point it calls Stop and returns. It is the long-running equivalent of
// the kernel module staying resident between init and exit.
func Start(root string, verbose bool) error {
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	registry := device.NewDeviceRegistry()

	binding, err := hostdev.Start(root, registry.Key, registry.Encryption)
	if err != nil {
		return fmt.Errorf("starting device bindings: %w", err)
	}
	log.Printf("present80drv: serving %s and %s under %s", hostdev.KeyDeviceName, hostdev.EncryptDeviceName, root)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("present80drv: shutting down")
	return Stop(binding, registry)
}

// Stop unregisters both sockets and closes the device registry. It is the
// equivalent of the kernel module's exit_module callback.
func Stop(binding *hostdev.SocketBinding, registry *device.DeviceRegistry) error {
	if err := binding.Stop(); err != nil {
		return fmt.Errorf("stopping device bindings: %w", err)
	}
	return registry.Close()
}
