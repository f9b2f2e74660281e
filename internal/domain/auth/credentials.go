package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRecord is an account as known to the credential source. It
// never leaves the auth package with its secret attached.
type CredentialRecord struct {
	ID           string
	Name         string
	Email        string
	Role         string
	Capabilities Capabilities
	SecretHash   string
}

func (r CredentialRecord) Identity() Identity {
	return Identity{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		Capabilities: r.Capabilities,
	}
}

type CredentialSource interface {
	LookupByEmail(ctx context.Context, email string) (CredentialRecord, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// MemoryCredentials is a fixed in-process account list.
type MemoryCredentials struct {
	mu      sync.RWMutex
	records []CredentialRecord
}

func NewMemoryCredentials(records ...CredentialRecord) *MemoryCredentials {
	out := make([]CredentialRecord, len(records))
	copy(out, records)
	return &MemoryCredentials{records: out}
}

// NewDemoCredentials builds the three demo accounts with DemoSecret.
func NewDemoCredentials() (*MemoryCredentials, error) {
	hash, err := HashPassword(DemoSecret)
	if err != nil {
		return nil, err
	}
	records := make([]CredentialRecord, 0, len(DemoAccounts))
	for _, acct := range DemoAccounts {
		records = append(records, CredentialRecord{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        acct.Email,
			Role:         acct.Role,
			Capabilities: NewCapabilities(RoleCapabilities[acct.Role]...),
			SecretHash:   hash,
		})
	}
	return NewMemoryCredentials(records...), nil
}

func (m *MemoryCredentials) LookupByEmail(ctx context.Context, email string) (CredentialRecord, error) {
	if err := ctx.Err(); err != nil {
		return CredentialRecord{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.Email == email {
			return rec, nil
		}
	}
	return CredentialRecord{}, ErrCredentialNotFound
}

func (m *MemoryCredentials) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.LookupByEmail(ctx, email)
	if errors.Is(err, ErrCredentialNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Roles returns each distinct role with its capabilities and the number of
// accounts holding it, in account order.
func (m *MemoryCredentials) Roles() []RoleSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	index := map[string]int{}
	out := make([]RoleSummary, 0, len(m.records))
	for _, rec := range m.records {
		if i, ok := index[rec.Role]; ok {
			out[i].Users++
			continue
		}
		index[rec.Role] = len(out)
		out = append(out, RoleSummary{Name: rec.Role, Capabilities: rec.Capabilities, Users: 1})
	}
	return out
}

type RoleSummary struct {
	Name         string       `json:"name"`
	Capabilities Capabilities `json:"permissions"`
	Users        int          `json:"userCount"`
}

type accountsFile struct {
	Accounts []struct {
		ID          string   `toml:"id"`
		Name        string   `toml:"name"`
		Email       string   `toml:"email"`
		Role        string   `toml:"role"`
		SecretHash  string   `toml:"secret_hash"`
		Permissions []string `toml:"permissions"`
	} `toml:"accounts"`
}

// LoadAccountsFile reads a TOML account list. Accounts without explicit
// permissions inherit the capabilities of their role.
func LoadAccountsFile(path string) (*MemoryCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	var file accountsFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}

	records := make([]CredentialRecord, 0, len(file.Accounts))
	emails := map[string]bool{}
	for i, acct := range file.Accounts {
		email := strings.TrimSpace(acct.Email)
		if email == "" || strings.TrimSpace(acct.ID) == "" {
			return nil, fmt.Errorf("account %d: id and email are required", i)
		}
		if acct.SecretHash == "" {
			return nil, fmt.Errorf("account %s: secret_hash is required", email)
		}
		if emails[email] {
			return nil, fmt.Errorf("account %s: duplicate email", email)
		}
		emails[email] = true

		caps := RoleCapabilities[acct.Role]
		if len(acct.Permissions) > 0 {
			caps = make([]Capability, 0, len(acct.Permissions))
			for _, p := range acct.Permissions {
				caps = append(caps, Capability(p))
			}
		}
		records = append(records, CredentialRecord{
			ID:           acct.ID,
			Name:         acct.Name,
			Email:        email,
			Role:         acct.Role,
			Capabilities: NewCapabilities(caps...),
			SecretHash:   acct.SecretHash,
		})
	}
	return NewMemoryCredentials(records...), nil
}
