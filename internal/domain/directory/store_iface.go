package directory

// StoreAPI is the directory backend. Insert and Update calls enforce the
// uniqueness rules atomically; Update applies fn to a copy and stores it
// only when fn and the checks succeed.
type StoreAPI interface {
	Employees() []Employee
	Employee(id string) (Employee, bool)
	InsertEmployee(employee Employee) error
	UpdateEmployee(id string, fn func(*Employee) error) (Employee, error)
	DeleteEmployee(id string) bool

	Departments() []Department
	InsertDepartment(department Department) error
	UpdateDepartment(id string, fn func(*Department) error) (Department, error)
	DeleteDepartment(id string) bool

	Attendance() []AttendanceRecord
	SaveAttendance(record AttendanceRecord)

	Salaries() []SalaryRecord
	Salary(id string) (SalaryRecord, bool)
	SaveSalary(record SalaryRecord)

	Roles() []Role
	InsertRole(role Role) error
	UpdateRole(id string, fn func(*Role) error) (Role, error)
	DeleteRole(id string, check func(Role) error) error
}
