package http

import (
	"net/http"

	"mould-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

type EquipmentHandler struct {
	equipmentSvc service.EquipmentService
	ledger       service.InventoryLedger
}

func NewEquipmentHandler(equipmentSvc service.EquipmentService, ledger service.InventoryLedger) *EquipmentHandler {
	return &EquipmentHandler{equipmentSvc: equipmentSvc, ledger: ledger}
}

type createEquipmentRequest struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *EquipmentHandler) CreateEquipmentType(w http.ResponseWriter, r *http.Request) {
	var req createEquipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.equipmentSvc.CreateEquipmentType(r.Context(), req.Name, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EquipmentHandler) ListEquipmentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.equipmentSvc.ListEquipmentTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"equipment_types": types})
}

func (h *EquipmentHandler) GetEquipmentType(w http.ResponseWriter, r *http.Request) {
	e, err := h.equipmentSvc.GetEquipmentType(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.equipmentSvc.SetQuantity(r.Context(), mux.Vars(r)["id"], req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EquipmentHandler) SeedEquipmentTypes(w http.ResponseWriter, r *http.Request) {
	created, err := h.equipmentSvc.SeedEquipmentTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *EquipmentHandler) ReconcileEquipmentType(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Reconcile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *EquipmentHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.ledger.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}
