package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	plain := []byte(`{"id":"1","email":"admin@aurahr.com"}`)

	sealed, err := s.Seal(plain, []byte("client:a:user"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("admin@aurahr.com")) {
		t.Fatal("sealed value leaks plaintext")
	}
	again, _ := s.Seal(plain, []byte("client:a:user"))
	if bytes.Equal(sealed, again) {
		t.Fatal("expected a fresh nonce per seal")
	}

	opened, err := s.Open(sealed, []byte("client:a:user"))
	if err != nil || !bytes.Equal(opened, plain) {
		t.Fatalf("open: %q %v", opened, err)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	sealed, err := s.Seal([]byte("value"), []byte("client:a:user"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	tests := []struct {
		name   string
		sealed []byte
		aad    string
	}{
		{name: "other key name", sealed: sealed, aad: "client:b:user"},
		{name: "truncated", sealed: sealed[:5], aad: "client:a:user"},
		{name: "unknown version", sealed: append([]byte{9}, sealed[1:]...), aad: "client:a:user"},
		{name: "flipped byte", sealed: flip(sealed), aad: "client:a:user"},
		{name: "plaintext", sealed: []byte(`{"id":"1"}`), aad: "client:a:user"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Open(tc.sealed, []byte(tc.aad)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseKey(t *testing.T) {
	raw := bytes.Repeat([]byte{7}, 32)
	for _, key := range []string{testKey, base64.StdEncoding.EncodeToString(raw), base64.RawURLEncoding.EncodeToString(raw)} {
		if decoded, err := ParseKey(key); err != nil || len(decoded) != 32 {
			t.Fatalf("expected %q to parse, got %v", key, err)
		}
	}
	for _, key := range []string{"", "short", strings.Repeat("z", 64), base64.StdEncoding.EncodeToString(raw[:16])} {
		if _, err := ParseKey(key); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func flip(b []byte) []byte {
	out := append([]byte(nil), b...)
	out[len(out)-1] ^= 0xff
	return out
}
