package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInterface = "xbridge/interface/v1"
	DomainHeader    = "xbridge/header/v1"
	DomainOptions   = "xbridge/options/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// InterfaceHash computes the content-addressed identity of a module
// interface. Equal interfaces hash equally regardless of the codec they
// were read from.
func InterfaceHash(mod *ModuleInterface) (string, error) {
	canonical, err := MarshalCanonical(mod)
	if err != nil {
		return "", fmt.Errorf("InterfaceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInterface, canonical), nil
}

// OptionsHash computes the identity of generation options. v must be
// JSON-encodable.
func OptionsHash(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("OptionsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOptions, canonical), nil
}

// HeaderHash computes the identity of an emitted header.
func HeaderHash(header []byte) string {
	return hashWithDomain(DomainHeader, header)
}

// MustInterfaceHash is like InterfaceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustInterfaceHash(mod *ModuleInterface) string {
	h, err := InterfaceHash(mod)
	if err != nil {
		panic(err)
	}
	return h
}
