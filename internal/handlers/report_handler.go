package handlers

import (
	"net/http"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/middleware"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/models"
	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rep, err := h.reports.SubmitReport(ctx, middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "Report submitted",
		Data:    rep,
	})
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	list, err := h.reports.ListReports(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrReportNotFound)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.reports.DeleteReport(ctx, middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Report deleted"))
}

// Resolve closes a report as passed or as a warning against the reported user.
func (h *ReportHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", services.ErrReportNotFound)
	if !ok {
		return
	}
	var req models.ResolveReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.reports.ResolveReport(ctx, middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Report resolved",
		Data:    res,
	})
}
