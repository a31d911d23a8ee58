package http

import (
	"net/http"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

type RentalHandler struct {
	rentalSvc service.RentalService
	receipts  service.ReceiptSequencer
}

func NewRentalHandler(rentalSvc service.RentalService, receipts service.ReceiptSequencer) *RentalHandler {
	return &RentalHandler{rentalSvc: rentalSvc, receipts: receipts}
}

type returnRentalRequest struct {
	ReturnAt *time.Time `json:"return_at,omitempty"`
}

// parseTime reads an optional RFC 3339 query parameter.
func parseTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

func (h *RentalHandler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.rentalSvc.CreateRental(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.RentalFilter{
		Status:     domain.RentalStatus(q.Get("status")),
		Search:     q.Get("search"),
		CustomerID: q.Get("customer_id"),
	}
	views, err := h.rentalSvc.ListRentals(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rentals": views, "count": len(views)})
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	view, err := h.rentalSvc.GetRental(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RentalHandler) ReturnRental(w http.ResponseWriter, r *http.Request) {
	var req returnRentalRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	var at time.Time
	if req.ReturnAt != nil {
		at = *req.ReturnAt
	}
	view, err := h.rentalSvc.ReturnRental(r.Context(), mux.Vars(r)["id"], at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RentalHandler) PreviewCharges(w http.ResponseWriter, r *http.Request) {
	at, err := parseTime(r, "at")
	if err != nil {
		writeError(w, r, err)
		return
	}
	charges, err := h.rentalSvc.PreviewCharges(r.Context(), mux.Vars(r)["id"], at)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, charges)
}

func (h *RentalHandler) DeleteRental(w http.ResponseWriter, r *http.Request) {
	if err := h.rentalSvc.DeleteRental(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) NextReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.receipts.Next(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"receipt_number": receipt})
}
