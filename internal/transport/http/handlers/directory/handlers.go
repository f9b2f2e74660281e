package directoryhandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/jellydator/validation"

	"aurahr/internal/domain/auth"
	"aurahr/internal/domain/directory"
	"aurahr/internal/domain/notifications"
	"aurahr/internal/platform/metrics"
	"aurahr/internal/transport/http/api"
	"aurahr/internal/transport/http/middleware"
	"aurahr/internal/transport/http/shared"
)

// Handler serves the directory pages' API. Successful changes are
// announced on the calling client's toast feed.
type Handler struct {
	Service *directory.Service
	Metrics *metrics.Collector
}

func NewHandler(service *directory.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

// RoleCatalogue turns account roles into catalogue entries. A role that
// grants everything is locked.
func RoleCatalogue(summaries []auth.RoleSummary) []directory.Role {
	out := make([]directory.Role, 0, len(summaries))
	for i, rs := range summaries {
		caps := rs.Capabilities.List()
		perms := make([]string, len(caps))
		for j, c := range caps {
			perms[j] = string(c)
		}
		out = append(out, directory.Role{
			ID:          strconv.Itoa(i + 1),
			Name:        rs.Name,
			Permissions: perms,
			UserCount:   rs.Users,
			Editable:    !rs.Capabilities.GrantsAll(),
		})
	}
	return out
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(h.require(auth.CapViewDashboard)).Get("/dashboard", h.handleDashboard)
	r.Route("/employees", func(r chi.Router) {
		r.With(h.require(auth.CapViewEmployees)).Get("/", h.handleListEmployees)
		r.With(h.require(auth.CapManageEmployees)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(h.require(auth.CapViewEmployees)).Get("/", h.handleGetEmployee)
			r.With(h.require(auth.CapManageEmployees)).Put("/", h.handleUpdateEmployee)
			r.With(h.require(auth.CapManageEmployees)).Delete("/", h.handleDeleteEmployee)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(h.require(auth.CapViewDepartments)).Get("/", h.handleListDepartments)
		r.With(h.require(auth.CapManageDepartments)).Post("/", h.handleCreateDepartment)
		r.With(h.require(auth.CapManageDepartments)).Put("/{departmentID}", h.handleUpdateDepartment)
		r.With(h.require(auth.CapManageDepartments)).Delete("/{departmentID}", h.handleDeleteDepartment)
	})
	r.Route("/attendance", func(r chi.Router) {
		r.With(h.require(auth.CapViewAttendance)).Get("/", h.handleListAttendance)
		r.With(h.require(auth.CapManageAttendance)).Post("/", h.handleRecordAttendance)
	})
	r.Route("/salary", func(r chi.Router) {
		r.With(h.require(auth.CapViewSalary)).Get("/", h.handleListSalaries)
		r.With(h.require(auth.CapManageSalary)).Post("/", h.handleCreateSalary)
		r.Route("/{salaryID}", func(r chi.Router) {
			r.With(h.require(auth.CapManageSalary)).Put("/", h.handleUpdateSalary)
			r.With(h.require(auth.CapViewSalary)).Get("/payslip", h.handlePayslip)
		})
	})
	r.Route("/settings/roles", func(r chi.Router) {
		r.With(h.require(auth.CapViewSettings)).Get("/", h.handleListRoles)
		r.With(h.require(auth.CapManageSettings)).Post("/", h.handleCreateRole)
		r.With(h.require(auth.CapManageSettings)).Put("/{roleID}", h.handleUpdateRole)
		r.With(h.require(auth.CapManageSettings)).Delete("/{roleID}", h.handleDeleteRole)
	})
}

func (h *Handler) require(capability auth.Capability) func(http.Handler) http.Handler {
	return middleware.RequireCapability(capability, h.Metrics)
}

type employeeRequest directory.EmployeeInput

func (r *employeeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), shared.NotBlank),
		validation.Field(&r.Email, validation.Required.Error("email is required"), shared.Email),
		validation.Field(&r.Status, validation.In(anyOf(directory.EmployeeStatuses)...).Error("must be active, inactive or on-leave")),
	)
}

// employeeUpdate leaves empty fields unchanged, so nothing is required.
type employeeUpdate directory.EmployeeInput

func (r *employeeUpdate) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, shared.Email),
		validation.Field(&r.Status, validation.In(anyOf(directory.EmployeeStatuses)...).Error("must be active, inactive or on-leave")),
	)
}

type departmentRequest directory.DepartmentInput

func (r *departmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required.Error("name is required"), shared.NotBlank),
		validation.Field(&r.Description, validation.Required.Error("description is required"), shared.NotBlank),
		validation.Field(&r.MaxCapacity, validation.Required.Error("maxCapacity is required"), validation.Min(1).Error("maxCapacity must be positive")),
	)
}

type attendanceRequest directory.AttendanceInput

func (r *attendanceRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EmployeeID, validation.Required.Error("employeeId is required")),
		validation.Field(&r.Status, validation.In(anyOf(directory.AttendanceStatuses)...).Error("must be present, absent, late or half-day")),
	)
}

type salaryRequest directory.SalaryInput

func (r *salaryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EmployeeID, validation.Required.Error("employeeId is required")),
		validation.Field(&r.Amount, validation.Required.Error("amount is required"), validation.Min(0.0).Exclusive().Error("amount must be positive")),
		validation.Field(&r.Currency, validation.Length(3, 3).Error("currency must be a 3-letter code")),
		validation.Field(&r.Type, validation.In(anyOf(directory.PayTypes)...).Error("must be annual, monthly or hourly")),
	)
}

// salaryUpdate keeps the current employee when employeeId is empty.
type salaryUpdate directory.SalaryInput

func (r *salaryUpdate) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required.Error("amount is required"), validation.Min(0.0).Exclusive().Error("amount must be positive")),
		validation.Field(&r.Currency, validation.Length(3, 3).Error("currency must be a 3-letter code")),
		validation.Field(&r.Type, validation.In(anyOf(directory.PayTypes)...).Error("must be annual, monthly or hourly")),
	)
}

// roleRequest checks permission names only. Empty names and empty
// permission lists are refused by the service so the caller gets a toast.
type roleRequest directory.RoleInput

func (r *roleRequest) Validate() error {
	known := make([]any, len(auth.KnownCapabilities))
	for i, c := range auth.KnownCapabilities {
		known[i] = string(c)
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Permissions, validation.Each(validation.In(known...).Error("unknown permission"))),
	)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.Dashboard(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	v.Enum("status", query.Get("status"), directory.EmployeeStatuses, "must be active, inactive or on-leave")
	if v.Reject(w, reqID) {
		return
	}

	items := h.Service.ListEmployees(directory.EmployeeFilter{
		Query:      query.Get("q"),
		Department: query.Get("department"),
		Status:     strings.ToLower(strings.TrimSpace(query.Get("status"))),
	})
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	api.Success(w, shared.Page(items, shared.ParsePagination(r, 100, 500)), reqID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.GetEmployee(chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	employee, err := h.Service.CreateEmployee(directory.EmployeeInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Employee added", "The employee has been added successfully")
	api.Created(w, employee, reqID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employeeUpdate
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	employee, err := h.Service.UpdateEmployee(chi.URLParam(r, "employeeID"), directory.EmployeeInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Employee updated", "The employee has been updated successfully")
	api.Success(w, employee, reqID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	if err := h.Service.DeleteEmployee(id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Employee deleted", "The employee has been removed successfully")
	api.Deleted(w, id, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.ListDepartments(r.URL.Query().Get("q")), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	department, err := h.Service.CreateDepartment(directory.DepartmentInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Department added", "The department has been added successfully")
	api.Created(w, department, reqID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload departmentRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	department, err := h.Service.UpdateDepartment(chi.URLParam(r, "departmentID"), directory.DepartmentInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Department updated", "The department has been updated successfully")
	api.Success(w, department, reqID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "departmentID")
	if err := h.Service.DeleteDepartment(id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Department deleted", "The department has been removed successfully")
	api.Deleted(w, id, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	filter := directory.AttendanceFilter{Query: query.Get("q")}
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		v := shared.NewValidator()
		date, ok := v.Date("date", raw)
		if v.Reject(w, reqID) {
			return
		}
		if ok {
			filter.Date = &date
		}
	}
	api.Success(w, h.Service.ListAttendance(filter), reqID)
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload attendanceRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	record, err := h.Service.RecordAttendance(directory.AttendanceInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Attendance recorded", fmt.Sprintf("%s's attendance has been recorded for %s", record.EmployeeName, record.Date.Format(shared.DisplayLayout)))
	api.Created(w, record, reqID)
}

func (h *Handler) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := h.Service.ListSalaries(directory.SalaryFilter{
		Query:  query.Get("q"),
		SortBy: strings.ToLower(strings.TrimSpace(query.Get("sort"))),
		Desc:   strings.EqualFold(query.Get("order"), "desc"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateSalary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload salaryRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	record, err := h.Service.CreateSalary(directory.SalaryInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Salary added", record.EmployeeName+"'s salary has been added successfully")
	api.Created(w, record, reqID)
}

func (h *Handler) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload salaryUpdate
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	record, err := h.Service.UpdateSalary(chi.URLParam(r, "salaryID"), directory.SalaryInput(payload))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(r, "Salary updated", record.EmployeeName+"'s salary has been updated successfully")
	api.Success(w, record, reqID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	salaryID := chi.URLParam(r, "salaryID")
	pdf, err := h.Service.Payslip(salaryID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payslip-`+salaryID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("write payslip failed", "salaryId", salaryID, "err", err)
	}
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.Service.ListRoles()
	if roles == nil {
		roles = make([]directory.Role, 0)
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload roleRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	role, err := h.Service.CreateRole(directory.RoleInput(payload))
	if err != nil {
		h.failRole(w, r, err)
		return
	}
	h.notify(r, "Success", fmt.Sprintf("Role %q has been created", role.Name))
	api.Created(w, role, reqID)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload roleRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	role, err := h.Service.UpdateRole(chi.URLParam(r, "roleID"), directory.RoleInput(payload))
	if err != nil {
		h.failRole(w, r, err)
		return
	}
	h.notify(r, "Success", fmt.Sprintf("Role %q has been updated", role.Name))
	api.Success(w, role, reqID)
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "roleID")
	if err := h.Service.DeleteRole(id); err != nil {
		h.failRole(w, r, err)
		return
	}
	h.notify(r, "Success", "Role has been deleted")
	api.Deleted(w, id, middleware.GetRequestID(r.Context()))
}

// failRole also reports refused role changes on the toast feed.
func (h *Handler) failRole(w http.ResponseWriter, r *http.Request, err error) {
	title := "Error"
	if errors.Is(err, directory.ErrInUse) {
		title = "Cannot delete"
	}
	if !errors.Is(err, directory.ErrNotFound) {
		h.toast(r, notifications.Toast{Title: title, Message: err.Error(), Severity: notifications.SeverityDestructive})
	}
	h.fail(w, r, err)
}

func (h *Handler) notify(r *http.Request, title, message string) {
	h.toast(r, notifications.Toast{Title: title, Message: message, Severity: notifications.SeverityDefault})
}

func (h *Handler) toast(r *http.Request, t notifications.Toast) {
	if client, ok := middleware.GetClient(r.Context()); ok {
		client.Feed.Notify(r.Context(), t)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, directory.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), reqID)
	case errors.Is(err, directory.ErrInUse):
		api.Fail(w, http.StatusConflict, "in_use", err.Error(), reqID)
	case errors.Is(err, directory.ErrLocked):
		api.Fail(w, http.StatusConflict, "locked", err.Error(), reqID)
	case errors.Is(err, directory.ErrInvalid):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), reqID)
	default:
		slog.Error("directory request failed", "path", r.URL.Path, "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "something went wrong", reqID)
	}
}

func anyOf(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
