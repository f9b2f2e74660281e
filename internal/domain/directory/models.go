package directory

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusOnLeave  = "on-leave"

	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceHalfDay = "half-day"

	PayAnnual  = "annual"
	PayMonthly = "monthly"
	PayHourly  = "hourly"

	SortByName   = "name"
	SortByAmount = "amount"
	SortByDate   = "date"
)

var (
	EmployeeStatuses   = []string{StatusActive, StatusInactive, StatusOnLeave}
	AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceHalfDay}
	PayTypes           = []string{PayAnnual, PayMonthly, PayHourly}
)

type Employee struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Email      string    `json:"email" yaml:"email"`
	Department string    `json:"department" yaml:"department"`
	Role       string    `json:"role" yaml:"role"`
	Status     string    `json:"status" yaml:"status"`
	JoinedDate time.Time `json:"joinedDate" yaml:"joined_date"`
	Image      string    `json:"image" yaml:"image"`
}

type Department struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description" yaml:"description"`
	EmployeeCount int    `json:"employeeCount" yaml:"employee_count"`
	MaxCapacity   int    `json:"maxCapacity" yaml:"max_capacity"`
	Manager       string `json:"manager,omitempty" yaml:"manager"`
	Color         string `json:"color" yaml:"color"`
}

type AttendanceRecord struct {
	ID           string    `json:"id" yaml:"id"`
	EmployeeID   string    `json:"employeeId" yaml:"employee_id"`
	EmployeeName string    `json:"employeeName" yaml:"employee_name"`
	Department   string    `json:"department" yaml:"department"`
	Date         time.Time `json:"date" yaml:"date"`
	Status       string    `json:"status" yaml:"status"`
	CheckInTime  string    `json:"checkInTime" yaml:"check_in"`
	CheckOutTime string    `json:"checkOutTime" yaml:"check_out"`
}

type SalaryRecord struct {
	ID            string    `json:"id" yaml:"id"`
	EmployeeID    string    `json:"employeeId" yaml:"employee_id"`
	EmployeeName  string    `json:"employeeName" yaml:"employee_name"`
	Department    string    `json:"department" yaml:"department"`
	Amount        float64   `json:"amount" yaml:"amount"`
	Currency      string    `json:"currency" yaml:"currency"`
	EffectiveDate time.Time `json:"effectiveDate" yaml:"effective_date"`
	Type          string    `json:"type" yaml:"type"`
	Status        string    `json:"status" yaml:"status"`
}

type EmployeeFilter struct {
	Query      string
	Department string
	Status     string
}

type AttendanceFilter struct {
	Query string
	Date  *time.Time
}

type SalaryFilter struct {
	Query  string
	SortBy string
	Desc   bool
}

type EmployeeInput struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Department string     `json:"department"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	JoinedDate *time.Time `json:"joinedDate"`
	Image      string     `json:"image"`
}

type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxCapacity int    `json:"maxCapacity"`
	Manager     string `json:"manager"`
	Color       string `json:"color"`
}

type AttendanceInput struct {
	EmployeeID   string     `json:"employeeId"`
	Date         *time.Time `json:"date"`
	Status       string     `json:"status"`
	CheckInTime  string     `json:"checkInTime"`
	CheckOutTime string     `json:"checkOutTime"`
}

// SalaryInput creates or edits a salary record. On edit, an empty
// EmployeeID keeps the current employee.
type SalaryInput struct {
	EmployeeID    string     `json:"employeeId"`
	Amount        float64    `json:"amount"`
	Currency      string     `json:"currency"`
	Type          string     `json:"type"`
	EffectiveDate *time.Time `json:"effectiveDate"`
}

// Role is an entry of the role catalogue shown on the settings page.
// Non-editable roles can be neither changed nor deleted.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"userCount"`
	Editable    bool     `json:"editable"`
}

type RoleInput struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type Stats struct {
	TotalEmployees  int            `json:"totalEmployees"`
	ActiveEmployees int            `json:"activeEmployees"`
	OnLeave         int            `json:"onLeave"`
	Departments     int            `json:"departments"`
	AttendanceToday map[string]int `json:"attendanceToday"`
	AnnualPayroll   float64        `json:"annualPayroll"`
	PayrollCurrency string         `json:"payrollCurrency"`
	RecentEmployees []Employee     `json:"recentEmployees"`
}
