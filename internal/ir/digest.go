package ir

import (
	_ "crypto/sha256" // registers digest.SHA256
	"fmt"

	"github.com/opencontainers/go-digest"
)

// DomainValue is the domain prefix for value digests.
// Version suffix enables future algorithm migration.
const DomainValue = "hostval/value/v1"

// Digest computes the content address of a value: SHA-256 over
// domain + 0x00 + canonical JSON. The null byte separator prevents
// domain/data boundary ambiguity.
//
// Values that compare Equal have the same digest, with the exception of maps
// carrying duplicate keys in different orders (not producible by a host).
func Digest(v Value) (digest.Digest, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest: failed to marshal: %w", err)
	}

	data := make([]byte, 0, len(DomainValue)+1+len(canonical))
	data = append(data, DomainValue...)
	data = append(data, 0x00)
	data = append(data, canonical...)
	return digest.SHA256.FromBytes(data), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the value is known to be well formed.
func MustDigest(v Value) digest.Digest {
	d, err := Digest(v)
	if err != nil {
		panic(err)
	}
	return d
}
