package auth

// Intent is an abstract navigation target. Transports translate intents
// into concrete routes.
type Intent string

const (
	IntentNone     Intent = ""
	IntentLogin    Intent = "login"
	IntentSignup   Intent = "signup"
	IntentHome     Intent = "home"
	IntentPrevious Intent = "previous"
)

type Destination struct {
	Title    string     `json:"title"`
	Path     string     `json:"path"`
	Required Capability `json:"permission"`
}

// Destinations is the protected route table, in menu order.
var Destinations = []Destination{
	{Title: "Dashboard", Path: "/", Required: CapViewDashboard},
	{Title: "Employees", Path: "/employees", Required: CapViewEmployees},
	{Title: "Attendance", Path: "/attendance", Required: CapViewAttendance},
	{Title: "Salary", Path: "/salary", Required: CapViewSalary},
	{Title: "Departments", Path: "/departments", Required: CapViewDepartments},
	{Title: "Reports", Path: "/reports", Required: CapViewReports},
	{Title: "Calendar", Path: "/calendar", Required: CapViewCalendar},
	{Title: "Settings", Path: "/settings", Required: CapViewSettings},
}

// Menu lists the destinations the state's identity may open.
func Menu(state State) []Destination {
	out := make([]Destination, 0, len(Destinations))
	for _, dest := range Destinations {
		if Evaluate(state, dest.Required).Outcome == OutcomeRender {
			out = append(out, dest)
		}
	}
	return out
}
