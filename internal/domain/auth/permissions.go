package auth

const (
	RoleSuperAdmin = "Super Admin"
	RoleHRManager  = "HR Manager"
	RoleFinance    = "Finance"
)

var RoleCapabilities = map[string][]Capability{
	RoleSuperAdmin: {CapAll},
	RoleHRManager: {
		CapViewDashboard,
		CapViewEmployees,
		CapManageEmployees,
		CapViewAttendance,
		CapManageAttendance,
		CapViewDepartments,
		CapViewSalary,
	},
	RoleFinance: {
		CapViewDashboard,
		CapViewEmployees,
		CapViewSalary,
		CapManageSalary,
	},
}

// DemoSecret is the shared secret of the built-in demo accounts.
const DemoSecret = "password123"

type DemoAccount struct {
	ID    string
	Name  string
	Email string
	Role  string
}

var DemoAccounts = []DemoAccount{
	{ID: "1", Name: "Admin User", Email: "admin@aurahr.com", Role: RoleSuperAdmin},
	{ID: "2", Name: "HR Manager", Email: "hr@aurahr.com", Role: RoleHRManager},
	{ID: "3", Name: "Finance User", Email: "finance@aurahr.com", Role: RoleFinance},
}
