package directory

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// MemoryStore holds the directory in process memory. Reads return copies in
// insertion order. Uniqueness rules are checked under the same lock as the
// write they guard.
type MemoryStore struct {
	mu          sync.RWMutex
	employees   []Employee
	departments []Department
	attendance  []AttendanceRecord
	salaries    []SalaryRecord
	roles       []Role
}

type fixtures struct {
	Employees   []Employee         `yaml:"employees"`
	Departments []Department       `yaml:"departments"`
	Attendance  []AttendanceRecord `yaml:"attendance"`
	Salary      []SalaryRecord     `yaml:"salary"`
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewSeededStore loads the built-in fixtures.
func NewSeededStore(today time.Time) (*MemoryStore, error) {
	return LoadFixtures(defaultFixtures, today)
}

// LoadFixtures builds a store from YAML. Attendance and salary rows take
// employee name and department from the referenced employee; attendance
// rows without a date are stamped with today.
func LoadFixtures(data []byte, today time.Time) (*MemoryStore, error) {
	var fx fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse directory fixtures: %w", err)
	}

	byID := make(map[string]Employee, len(fx.Employees))
	for _, e := range fx.Employees {
		if e.ID == "" {
			return nil, fmt.Errorf("directory fixtures: employee %q has no id", e.Name)
		}
		byID[e.ID] = e
	}
	for i := range fx.Attendance {
		rec := &fx.Attendance[i]
		emp, ok := byID[rec.EmployeeID]
		if !ok {
			return nil, fmt.Errorf("directory fixtures: attendance %s references unknown employee %s", rec.ID, rec.EmployeeID)
		}
		rec.EmployeeName, rec.Department = emp.Name, emp.Department
		if rec.Date.IsZero() {
			rec.Date = startOfDay(today)
		}
	}
	for i := range fx.Salary {
		rec := &fx.Salary[i]
		emp, ok := byID[rec.EmployeeID]
		if !ok {
			return nil, fmt.Errorf("directory fixtures: salary %s references unknown employee %s", rec.ID, rec.EmployeeID)
		}
		rec.EmployeeName, rec.Department = emp.Name, emp.Department
	}

	return &MemoryStore{
		employees:   fx.Employees,
		departments: fx.Departments,
		attendance:  fx.Attendance,
		salaries:    fx.Salary,
	}, nil
}

func (s *MemoryStore) Employees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Employee(nil), s.employees...)
}

func (s *MemoryStore) Employee(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.employees, id, idOfEmployee)
	if i < 0 {
		return Employee{}, false
	}
	return s.employees[i], true
}

func (s *MemoryStore) InsertEmployee(employee Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(employee.Email, "") {
		return fmt.Errorf("employee %s: %w", employee.Email, ErrConflict)
	}
	s.employees = append(s.employees, employee)
	return nil
}

func (s *MemoryStore) UpdateEmployee(id string, fn func(*Employee) error) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.employees, id, idOfEmployee)
	if i < 0 {
		return Employee{}, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	e := s.employees[i]
	if err := fn(&e); err != nil {
		return Employee{}, err
	}
	if s.emailTaken(e.Email, id) {
		return Employee{}, fmt.Errorf("employee %s: %w", e.Email, ErrConflict)
	}
	s.employees[i] = e
	return e, nil
}

func (s *MemoryStore) DeleteEmployee(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.employees, id, idOfEmployee)
}

func (s *MemoryStore) emailTaken(email, exceptID string) bool {
	email = strings.TrimSpace(email)
	for _, e := range s.employees {
		if e.ID != exceptID && strings.EqualFold(e.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Departments() []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Department(nil), s.departments...)
}

func (s *MemoryStore) InsertDepartment(department Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.departmentNameTaken(department.Name, "") {
		return fmt.Errorf("department %s: %w", department.Name, ErrConflict)
	}
	s.departments = append(s.departments, department)
	return nil
}

func (s *MemoryStore) UpdateDepartment(id string, fn func(*Department) error) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.departments, id, idOfDepartment)
	if i < 0 {
		return Department{}, fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	d := s.departments[i]
	if err := fn(&d); err != nil {
		return Department{}, err
	}
	if s.departmentNameTaken(d.Name, id) {
		return Department{}, fmt.Errorf("department %s: %w", d.Name, ErrConflict)
	}
	s.departments[i] = d
	return d, nil
}

func (s *MemoryStore) DeleteDepartment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.departments, id, idOfDepartment)
}

func (s *MemoryStore) departmentNameTaken(name, exceptID string) bool {
	for _, d := range s.departments {
		if d.ID != exceptID && strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Attendance() []AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AttendanceRecord(nil), s.attendance...)
}

func (s *MemoryStore) SaveAttendance(record AttendanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.attendance, record.ID, idOfAttendance); i >= 0 {
		s.attendance[i] = record
		return
	}
	s.attendance = append(s.attendance, record)
}

func (s *MemoryStore) Salaries() []SalaryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SalaryRecord(nil), s.salaries...)
}

func (s *MemoryStore) Salary(id string) (SalaryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOf(s.salaries, id, idOfSalary)
	if i < 0 {
		return SalaryRecord{}, false
	}
	return s.salaries[i], true
}

func (s *MemoryStore) SaveSalary(record SalaryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.salaries, record.ID, idOfSalary); i >= 0 {
		s.salaries[i] = record
		return
	}
	s.salaries = append(s.salaries, record)
}

// SeedRoles replaces the role catalogue.
func (s *MemoryStore) SeedRoles(roles []Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append([]Role(nil), roles...)
}

func (s *MemoryStore) Roles() []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Role(nil), s.roles...)
}

func (s *MemoryStore) InsertRole(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleNameTaken(role.Name, "") {
		return fmt.Errorf("role %s: %w", role.Name, ErrConflict)
	}
	s.roles = append(s.roles, role)
	return nil
}

func (s *MemoryStore) UpdateRole(id string, fn func(*Role) error) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.roles, id, idOfRole)
	if i < 0 {
		return Role{}, fmt.Errorf("role %s: %w", id, ErrNotFound)
	}
	r := s.roles[i]
	r.Permissions = append([]string(nil), r.Permissions...)
	if err := fn(&r); err != nil {
		return Role{}, err
	}
	if s.roleNameTaken(r.Name, id) {
		return Role{}, fmt.Errorf("role %s: %w", r.Name, ErrConflict)
	}
	s.roles[i] = r
	return r, nil
}

// DeleteRole removes the role when check accepts it.
func (s *MemoryStore) DeleteRole(id string, check func(Role) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.roles, id, idOfRole)
	if i < 0 {
		return fmt.Errorf("role %s: %w", id, ErrNotFound)
	}
	if err := check(s.roles[i]); err != nil {
		return err
	}
	s.roles = append(s.roles[:i], s.roles[i+1:]...)
	return nil
}

func (s *MemoryStore) roleNameTaken(name, exceptID string) bool {
	for _, r := range s.roles {
		if r.ID != exceptID && strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

func idOfEmployee(e Employee) string { return e.ID }
func idOfDepartment(d Department) string { return d.ID }
func idOfAttendance(r AttendanceRecord) string { return r.ID }
func idOfSalary(r SalaryRecord) string { return r.ID }
func idOfRole(r Role) string { return r.ID }

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i := range items {
		if idOf(items[i]) == id {
			return i
		}
	}
	return -1
}

func remove[T any](items *[]T, id string, idOf func(T) string) bool {
	i := indexOf(*items, id, idOf)
	if i < 0 {
		return false
	}
	*items = append((*items)[:i], (*items)[i+1:]...)
	return true
}
