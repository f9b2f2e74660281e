package directory

import (
	"fmt"
	"strings"
)

func (s *Service) ListRoles() []Role {
	return s.store.Roles()
}

// CreateRole adds an editable role with no assigned users.
func (s *Service) CreateRole(in RoleInput) (Role, error) {
	name, perms, err := checkRole(in)
	if err != nil {
		return Role{}, err
	}
	r := Role{
		ID:          s.newID(),
		Name:        name,
		Permissions: perms,
		Editable:    true,
	}
	if err := s.store.InsertRole(r); err != nil {
		return Role{}, err
	}
	return r, nil
}

func (s *Service) UpdateRole(id string, in RoleInput) (Role, error) {
	name, perms, err := checkRole(in)
	if err != nil {
		return Role{}, err
	}
	return s.store.UpdateRole(id, func(r *Role) error {
		if !r.Editable {
			return fmt.Errorf("role %q: %w", r.Name, ErrLocked)
		}
		r.Name = name
		r.Permissions = perms
		return nil
	})
}

// DeleteRole refuses roles that are locked or still assigned to users.
func (s *Service) DeleteRole(id string) error {
	return s.store.DeleteRole(id, func(r Role) error {
		if !r.Editable {
			return fmt.Errorf("role %q: %w", r.Name, ErrLocked)
		}
		if r.UserCount > 0 {
			return fmt.Errorf("role %q has %d assigned users: %w", r.Name, r.UserCount, ErrInUse)
		}
		return nil
	})
}

func checkRole(in RoleInput) (string, []string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: role name cannot be empty", ErrInvalid)
	}
	seen := make(map[string]bool, len(in.Permissions))
	perms := make([]string, 0, len(in.Permissions))
	for _, p := range in.Permissions {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		perms = append(perms, p)
	}
	if len(perms) == 0 {
		return "", nil, fmt.Errorf("%w: role must have at least one permission", ErrInvalid)
	}
	return name, perms, nil
}
