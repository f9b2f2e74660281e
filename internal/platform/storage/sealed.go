package storage

import (
	"context"
	"fmt"
)

type Cipher interface {
	Seal(plain, aad []byte) ([]byte, error)
	Open(sealed, aad []byte) ([]byte, error)
}

// Sealed encrypts values before they reach the wrapped backend. Each value
// is bound to its key, so a copied row does not open under another client.
type Sealed struct {
	KV
	cipher Cipher
}

func NewSealed(kv KV, cipher Cipher) *Sealed {
	return &Sealed{KV: kv, cipher: cipher}
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.KV.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Open(data, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", key, ErrCorrupt, err)
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.cipher.Seal(value, []byte(key))
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.KV.Set(ctx, key, sealed)
}
