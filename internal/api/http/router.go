package http

import (
	"net/http"
	"runtime/debug"
	"time"

	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services are the dependencies the HTTP API is served from.
type Services struct {
	Rental    service.RentalService
	Equipment service.EquipmentService
	Customer  service.CustomerService
	Stats     service.StatsService
	Ledger    service.InventoryLedger
	Receipts  service.ReceiptSequencer
}

// NewRouter builds the API router with logging and panic recovery applied to
// every route.
func NewRouter(svcs Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	RegisterRentalRoutes(api, NewRentalHandler(svcs.Rental, svcs.Receipts))
	RegisterEquipmentRoutes(api, NewEquipmentHandler(svcs.Equipment, svcs.Ledger))
	RegisterCustomerRoutes(api, NewCustomerHandler(svcs.Customer))
	api.HandleFunc("/stats", NewStatsHandler(svcs.Stats).GetStats).Methods(http.MethodGet)
	return router
}

func RegisterRentalRoutes(router *mux.Router, h *RentalHandler) {
	router.HandleFunc("/rentals", h.CreateRental).Methods(http.MethodPost)
	router.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet)
	router.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet)
	router.HandleFunc("/rentals/{id}", h.DeleteRental).Methods(http.MethodDelete)
	router.HandleFunc("/rentals/{id}/return", h.ReturnRental).Methods(http.MethodPost)
	router.HandleFunc("/rentals/{id}/charges", h.PreviewCharges).Methods(http.MethodGet)
	router.HandleFunc("/receipts/next", h.NextReceipt).Methods(http.MethodGet)
}

func RegisterEquipmentRoutes(router *mux.Router, h *EquipmentHandler) {
	router.HandleFunc("/equipment", h.CreateEquipmentType).Methods(http.MethodPost)
	router.HandleFunc("/equipment", h.ListEquipmentTypes).Methods(http.MethodGet)
	router.HandleFunc("/equipment/seed", h.SeedEquipmentTypes).Methods(http.MethodPost)
	router.HandleFunc("/equipment/{id}", h.GetEquipmentType).Methods(http.MethodGet)
	router.HandleFunc("/equipment/{id}/quantity", h.SetQuantity).Methods(http.MethodPut)
	router.HandleFunc("/equipment/{id}/reconcile", h.ReconcileEquipmentType).Methods(http.MethodPost)
	router.HandleFunc("/inventory/reconcile", h.ReconcileAll).Methods(http.MethodPost)
}

func RegisterCustomerRoutes(router *mux.Router, h *CustomerHandler) {
	router.HandleFunc("/customers/{id}", h.GetCustomer).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}", h.DeleteCustomer).Methods(http.MethodDelete)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
