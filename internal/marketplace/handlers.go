package marketplace

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/apperr"
	"github.com/sudo-init-do/fixhub/internal/user"
)

// Handler exposes the job lifecycle over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// =========================
// CreateJob - Customer requests a service
// =========================
func (h *Handler) CreateJob(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateJobInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	job, err := h.svc.CreateJob(c.Request().Context(), caller, req)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"job":     job,
		"message": "Request submitted",
	})
}

// GET /jobs/:id
func (h *Handler) GetJob(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	job, err := h.svc.Job(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// GET /jobs/mine
func (h *Handler) MyJobs(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	jobs, err := h.svc.MyJobs(c.Request().Context(), caller)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs})
}

// GET /jobs/checkout
func (h *Handler) CheckoutNeeded(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	jobs, err := h.svc.CheckoutNeeded(c.Request().Context(), caller)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs})
}

// =========================
// MarkArrived - Pro is on site
// =========================
func (h *Handler) MarkArrived(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	job, err := h.svc.MarkArrived(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// =========================
// SaveInvoice - Pro edits the invoice
// =========================
func (h *Handler) SaveInvoice(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}

	var req InvoiceInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice"})
	}

	job, err := h.svc.SaveInvoice(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// =========================
// RequestPayment - Pro asks the customer to pay
// =========================
func (h *Handler) RequestPayment(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	job, err := h.svc.RequestPayment(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// POST /jobs/:id/proof
func (h *Handler) AddProof(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req struct {
		Photo string `json:"photo"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	job, err := h.svc.AddProofPhoto(c.Request().Context(), caller, c.Param("id"), req.Photo)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// =========================
// Complete - Customer confirms the work is done
// =========================
func (h *Handler) Complete(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	job, err := h.svc.Complete(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// =========================
// Rate - Customer rates the pro
// =========================
func (h *Handler) Rate(c echo.Context) error {
	caller, ok := user.CallerFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req struct {
		Rating *int `json:"rating"`
	}
	if err := c.Bind(&req); err != nil || req.Rating == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating is required"})
	}
	job, err := h.svc.SubmitRating(c.Request().Context(), caller, c.Param("id"), *req.Rating)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"job":     job,
		"message": "Thanks for rating!",
	})
}

// GET /admin/jobs?status=paid,completed&limit=50
func (h *Handler) AdminJobs(c echo.Context) error {
	var statuses []Status
	if raw := c.QueryParam("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := Status(strings.TrimSpace(s))
			if !st.In(Statuses...) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status " + string(st)})
			}
			statuses = append(statuses, st)
		}
	}
	limit := 100
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	jobs, err := h.svc.AdminJobs(c.Request().Context(), statuses, limit)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs})
}
