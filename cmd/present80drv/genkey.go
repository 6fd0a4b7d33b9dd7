package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/sixafter/nanoid/x/crypto/prng"

	"github.com/present80/present80drv/cipher"
)

// runGenkey implements the genkey subcommand: it draws cipher.KeySize bytes
// from a CSPRNG and prints the key, hex-encoded by default. The original
// driver left key generation to userspace (a write() of caller-chosen
// bytes); this subcommand exists because the reference implementation this
// driver was modeled on shipped its own key generator rather than relying
// solely on caller-supplied material.
func runGenkey(args []string) {
	fs := flag.NewFlagSet("genkey", flag.ExitOnError)
	raw := fs.Bool("raw", false, "print raw key bytes instead of hex")
	dump := fs.Bool("dump", false, "also print a labeled hex dump of the key to stderr")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("present80drv genkey: %v", err)
	}

	key, err := generateKey()
	if err != nil {
		log.Fatalf("present80drv genkey: %v", err)
	}

	if *dump {
		fmt.Fprintln(log.Writer(), cipher.DebugDump("key", key, 8))
	}

	if *raw {
		fmt.Print(string(key))
		return
	}

	fmt.Println(hex.EncodeToString(key))
}

// generateKey draws a fresh PRESENT-80 key from the platform CSPRNG.
func generateKey() ([]byte, error) {
	reader, err := prng.NewReader()
	if err != nil {
		return nil, fmt.Errorf("opening CSPRNG: %w", err)
	}

	key := make([]byte, cipher.KeySize)
	if _, err := reader.Read(key); err != nil {
		return nil, fmt.Errorf("reading random key material: %w", err)
	}
	return key, nil
}
