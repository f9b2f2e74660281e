// Package directory serves the HR records behind the AuraHR pages:
// employees, departments, attendance and salary.
package directory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid input")
	ErrInUse    = errors.New("still in use")
	ErrLocked   = errors.New("not editable")
)

type Service struct {
	store StoreAPI
	now   func() time.Time
	newID func() string
}

func NewService(store StoreAPI, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now, newID: uuid.NewString}
}

func (s *Service) ListEmployees(f EmployeeFilter) []Employee {
	out := make([]Employee, 0)
	for _, e := range s.store.Employees() {
		if matchesEmployee(e, f) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) GetEmployee(id string) (Employee, error) {
	e, ok := s.store.Employee(id)
	if !ok {
		return Employee{}, fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (s *Service) CreateEmployee(in EmployeeInput) (Employee, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return Employee{}, fmt.Errorf("%w: name and email are required", ErrInvalid)
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	if !validStatus(status, EmployeeStatuses) {
		return Employee{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	joined := startOfDay(s.now())
	if in.JoinedDate != nil {
		joined = *in.JoinedDate
	}
	e := Employee{
		ID:         s.newID(),
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Department: in.Department,
		Role:       in.Role,
		Status:     status,
		JoinedDate: joined,
		Image:      in.Image,
	}
	if err := s.store.InsertEmployee(e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// UpdateEmployee applies the non-empty fields of in.
func (s *Service) UpdateEmployee(id string, in EmployeeInput) (Employee, error) {
	if in.Status != "" && !validStatus(in.Status, EmployeeStatuses) {
		return Employee{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, in.Status)
	}
	return s.store.UpdateEmployee(id, func(e *Employee) error {
		setIf(&e.Name, strings.TrimSpace(in.Name))
		setIf(&e.Email, strings.TrimSpace(in.Email))
		setIf(&e.Department, in.Department)
		setIf(&e.Role, in.Role)
		setIf(&e.Status, in.Status)
		setIf(&e.Image, in.Image)
		if in.JoinedDate != nil {
			e.JoinedDate = *in.JoinedDate
		}
		return nil
	})
}

func (s *Service) DeleteEmployee(id string) error {
	if !s.store.DeleteEmployee(id) {
		return fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Service) ListDepartments(query string) []Department {
	out := make([]Department, 0)
	for _, d := range s.store.Departments() {
		if containsFold(query, d.Name, d.Description, d.Manager) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) CreateDepartment(in DepartmentInput) (Department, error) {
	if err := checkDepartment(in); err != nil {
		return Department{}, err
	}
	d := Department{ID: s.newID()}
	applyDepartment(&d, in)
	if err := s.store.InsertDepartment(d); err != nil {
		return Department{}, err
	}
	return d, nil
}

// UpdateDepartment replaces the editable fields. The employee count is
// kept.
func (s *Service) UpdateDepartment(id string, in DepartmentInput) (Department, error) {
	if err := checkDepartment(in); err != nil {
		return Department{}, err
	}
	return s.store.UpdateDepartment(id, func(d *Department) error {
		applyDepartment(d, in)
		return nil
	})
}

func (s *Service) DeleteDepartment(id string) error {
	if !s.store.DeleteDepartment(id) {
		return fmt.Errorf("department %s: %w", id, ErrNotFound)
	}
	return nil
}

func checkDepartment(in DepartmentInput) error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalid)
	}
	if in.MaxCapacity <= 0 {
		return fmt.Errorf("%w: max capacity must be positive", ErrInvalid)
	}
	return nil
}

func applyDepartment(d *Department, in DepartmentInput) {
	d.Name = strings.TrimSpace(in.Name)
	d.Description = strings.TrimSpace(in.Description)
	d.MaxCapacity = in.MaxCapacity
	d.Manager = in.Manager
	d.Color = in.Color
	if d.Color == "" {
		d.Color = "#3498db"
	}
}

func (s *Service) ListAttendance(f AttendanceFilter) []AttendanceRecord {
	out := make([]AttendanceRecord, 0)
	for _, r := range s.store.Attendance() {
		if matchesAttendance(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) RecordAttendance(in AttendanceInput) (AttendanceRecord, error) {
	emp, ok := s.store.Employee(in.EmployeeID)
	if !ok {
		return AttendanceRecord{}, fmt.Errorf("employee %s: %w", in.EmployeeID, ErrNotFound)
	}
	status := in.Status
	if status == "" {
		status = AttendancePresent
	}
	if !validStatus(status, AttendanceStatuses) {
		return AttendanceRecord{}, fmt.Errorf("%w: unknown attendance status %q", ErrInvalid, status)
	}
	date := startOfDay(s.now())
	if in.Date != nil {
		date = startOfDay(*in.Date)
	}
	r := AttendanceRecord{
		ID:           s.newID(),
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Department:   emp.Department,
		Date:         date,
		Status:       status,
		CheckInTime:  in.CheckInTime,
		CheckOutTime: in.CheckOutTime,
	}
	s.store.SaveAttendance(r)
	return r, nil
}

func (s *Service) ListSalaries(f SalaryFilter) ([]SalaryRecord, error) {
	switch f.SortBy {
	case "", SortByName, SortByAmount, SortByDate:
	default:
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalid, f.SortBy)
	}
	out := make([]SalaryRecord, 0)
	for _, r := range s.store.Salaries() {
		if containsFold(f.Query, r.EmployeeName, r.Department) {
			out = append(out, r)
		}
	}
	sortSalaries(out, f.SortBy, f.Desc)
	return out, nil
}

func (s *Service) GetSalary(id string) (SalaryRecord, error) {
	r, ok := s.store.Salary(id)
	if !ok {
		return SalaryRecord{}, fmt.Errorf("salary %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// CreateSalary adds an active record for an existing employee. Currency
// defaults to USD, pay type to annual and the effective date to today.
func (s *Service) CreateSalary(in SalaryInput) (SalaryRecord, error) {
	if err := checkSalary(in); err != nil {
		return SalaryRecord{}, err
	}
	emp, ok := s.store.Employee(in.EmployeeID)
	if !ok {
		return SalaryRecord{}, fmt.Errorf("employee %s: %w", in.EmployeeID, ErrNotFound)
	}
	r := SalaryRecord{
		ID:            s.newID(),
		Currency:      "USD",
		Type:          PayAnnual,
		EffectiveDate: startOfDay(s.now()),
		Status:        StatusActive,
	}
	applySalary(&r, emp, in)
	s.store.SaveSalary(r)
	return r, nil
}

func (s *Service) UpdateSalary(id string, in SalaryInput) (SalaryRecord, error) {
	r, err := s.GetSalary(id)
	if err != nil {
		return SalaryRecord{}, err
	}
	if err := checkSalary(in); err != nil {
		return SalaryRecord{}, err
	}
	employeeID := r.EmployeeID
	if in.EmployeeID != "" {
		employeeID = in.EmployeeID
	}
	emp, ok := s.store.Employee(employeeID)
	if !ok {
		return SalaryRecord{}, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	applySalary(&r, emp, in)
	s.store.SaveSalary(r)
	return r, nil
}

func checkSalary(in SalaryInput) error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if in.Type != "" && !validStatus(in.Type, PayTypes) {
		return fmt.Errorf("%w: unknown pay type %q", ErrInvalid, in.Type)
	}
	return nil
}

func applySalary(r *SalaryRecord, emp Employee, in SalaryInput) {
	r.EmployeeID, r.EmployeeName, r.Department = emp.ID, emp.Name, emp.Department
	r.Amount = in.Amount
	setIf(&r.Currency, strings.ToUpper(strings.TrimSpace(in.Currency)))
	setIf(&r.Type, in.Type)
	if in.EffectiveDate != nil {
		r.EffectiveDate = *in.EffectiveDate
	}
}

// Dashboard summarizes the directory as of today.
func (s *Service) Dashboard() Stats {
	employees := s.store.Employees()
	stats := Stats{
		TotalEmployees:  len(employees),
		Departments:     len(s.store.Departments()),
		AttendanceToday: map[string]int{},
	}
	for _, e := range employees {
		switch e.Status {
		case StatusActive:
			stats.ActiveEmployees++
		case StatusOnLeave:
			stats.OnLeave++
		}
	}

	today := s.now()
	for _, r := range s.store.Attendance() {
		if sameDay(r.Date, today) {
			stats.AttendanceToday[r.Status]++
		}
	}

	for _, r := range s.store.Salaries() {
		if r.Status != StatusActive {
			continue
		}
		stats.AnnualPayroll += AnnualAmount(r)
		switch stats.PayrollCurrency {
		case "":
			stats.PayrollCurrency = r.Currency
		case r.Currency:
		default:
			stats.PayrollCurrency = "mixed"
		}
	}

	sort.SliceStable(employees, func(i, j int) bool {
		return employees[i].JoinedDate.After(employees[j].JoinedDate)
	})
	if len(employees) > 4 {
		employees = employees[:4]
	}
	stats.RecentEmployees = employees
	return stats
}

func setIf(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
