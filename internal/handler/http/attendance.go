package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

const maxBatchRecords = 500

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Mark(w http.ResponseWriter, r *http.Request)
	MarkBatch(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	GetStatus(w http.ResponseWriter, r *http.Request)
	NotCheckedIn(w http.ResponseWriter, r *http.Request)
	Sweep(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CheckIn decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in successfully", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CheckOut decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out successfully", result)
}

// Mark implements AttendanceHandler.
func (h *attendanceHandlerImpl) Mark(w http.ResponseWriter, r *http.Request) {
	var req attendance.MarkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Mark decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.MarkAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance recorded", result)
}

// MarkBatch implements AttendanceHandler. Items are written independently;
// one failing item does not roll back the others.
func (h *attendanceHandlerImpl) MarkBatch(w http.ResponseWriter, r *http.Request) {
	var req attendance.BatchMarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("MarkBatch decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if len(req.Records) == 0 {
		response.BadRequest(w, "records must not be empty", nil)
		return
	}
	if len(req.Records) > maxBatchRecords {
		response.BadRequest(w, "too many records in one batch", nil)
		return
	}

	result := attendance.BatchMarkResponse{
		Saved:  make([]attendance.AttendanceResponse, 0, len(req.Records)),
		Failed: make([]attendance.BatchFailure, 0),
	}
	for i, item := range req.Records {
		saved, err := h.attendanceService.MarkAttendance(r.Context(), item)
		if err == nil {
			result.Saved = append(result.Saved, saved)
			continue
		}
		if errors.Is(err, attendance.ErrStoreUnavailable) {
			response.HandleError(w, err)
			return
		}

		failure := attendance.BatchFailure{Index: i, EmployeeID: item.EmployeeID, Error: err.Error()}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			failure.Error = "Validation failed"
			failure.Details = fieldErrs.ToMap()
		}
		result.Failed = append(result.Failed, failure)
	}

	slog.Info("audit", "action", "attendance.batch_marked", "entity_type", "attendance",
		"saved", len(result.Saved), "failed", len(result.Failed))
	response.SuccessWithMessage(w, "Batch processed", result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := attendance.AttendanceFilter{
		DateFrom:   optionalQuery(query, "date_from"),
		DateTo:     optionalQuery(query, "date_to"),
		EmployeeID: optionalQuery(query, "employee_id"),
		Department: optionalQuery(query, "department"),
		Status:     optionalQuery(query, "status"),
	}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

// GetStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetStatus(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// NotCheckedIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) NotCheckedIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.NotCheckedIn(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Sweep implements AttendanceHandler.
func (h *attendanceHandlerImpl) Sweep(w http.ResponseWriter, r *http.Request) {
	closed, err := h.attendanceService.SweepAutoCheckout(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.SweepResponse{Closed: closed})
}
