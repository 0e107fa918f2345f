package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/export"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	GetAttendanceSummary(w http.ResponseWriter, r *http.Request)
	GetEmployeePerformance(w http.ResponseWriter, r *http.Request)
	GetDepartmentReport(w http.ResponseWriter, r *http.Request)
	GetDashboard(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
	clock         clock.Clock
}

func NewReportHandler(reportService report.ReportService, clk clock.Clock) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
		clock:         clk,
	}
}

func reportParams(r *http.Request) report.Params {
	query := r.URL.Query()
	return report.Params{
		DateFrom:   query.Get("date_from"),
		DateTo:     query.Get("date_to"),
		Department: query.Get("department"),
		EmployeeID: query.Get("employee_id"),
	}
}

// GetAttendanceSummary implements ReportHandler.
func (h *reportHandlerImpl) GetAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, report.TypeAttendanceSummary, reportParams(r))
}

// GetEmployeePerformance implements ReportHandler.
func (h *reportHandlerImpl) GetEmployeePerformance(w http.ResponseWriter, r *http.Request) {
	params := reportParams(r)
	params.EmployeeID = chi.URLParam(r, "employeeID")
	h.serve(w, r, report.TypeEmployeePerformance, params)
}

// GetDepartmentReport implements ReportHandler.
func (h *reportHandlerImpl) GetDepartmentReport(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, report.TypeDepartment, reportParams(r))
}

// GetDashboard implements ReportHandler.
func (h *reportHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, report.TypeDashboard, report.Params{})
}

func (h *reportHandlerImpl) serve(w http.ResponseWriter, r *http.Request, reportType string, params report.Params) {
	result, err := report.Generate(r.Context(), h.reportService, reportType, params)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements ReportHandler. The file is rendered in full before any
// header is written so failures still produce a JSON error body.
func (h *reportHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	reportType := chi.URLParam(r, "type")

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := report.Generate(r.Context(), h.reportService, reportType, reportParams(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, result); err != nil {
		slog.Error("Failed to render report export", "report_type", reportType, "format", format, "error", err)
		response.InternalServerError(w, "Failed to export report")
		return
	}

	filename := export.FileName(reportType, h.clock.Now().Format(attendance.DateLayout), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Report export write interrupted", "report_type", reportType, "error", err)
	}
}
