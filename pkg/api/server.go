// Package api pkg/api/server.go exposes the HTTP surface: reading
// ingestion, device health queries, alert management, and the WebSocket
// upgrade endpoint. All policy lives in the core packages; handlers only
// translate.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pulsewatch/pulsewatch/pkg/alerts"
	"github.com/pulsewatch/pulsewatch/pkg/db"
	"github.com/pulsewatch/pulsewatch/pkg/ingest"
)

// defaultReadingsWindow bounds /readings queries without an explicit since.
const defaultReadingsWindow = time.Hour

// Server is the HTTP API server.
type Server struct {
	coordinator *ingest.Coordinator
	store       db.Service
	engine      *alerts.Engine
	wsHandler   http.Handler
	router      *mux.Router
	httpSrv     *http.Server
}

// NewServer builds the router. wsHandler may be nil to disable the
// WebSocket endpoint.
func NewServer(
	coordinator *ingest.Coordinator,
	store db.Service,
	engine *alerts.Engine,
	wsHandler http.Handler) *Server {
	s := &Server{
		coordinator: coordinator,
		store:       store,
		engine:      engine,
		wsHandler:   wsHandler,
		router:      mux.NewRouter(),
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	s.router.HandleFunc("/api/readings", s.postReading).Methods("POST")

	s.router.HandleFunc("/api/devices", s.getDevices).Methods("GET")
	s.router.HandleFunc("/api/devices/{id}", s.getDevice).Methods("GET")
	s.router.HandleFunc("/api/devices/{id}/health", s.getDeviceHealth).Methods("GET")
	s.router.HandleFunc("/api/devices/{id}/readings", s.getDeviceReadings).Methods("GET")

	s.router.HandleFunc("/api/alerts", s.getAlerts).Methods("GET")
	s.router.HandleFunc("/api/alerts/{id}/acknowledge", s.acknowledgeAlert).Methods("POST")
	s.router.HandleFunc("/api/alerts/{id}/resolve", s.resolveAlert).Methods("POST")

	if s.wsHandler != nil {
		s.router.Handle("/api/ws", s.wsHandler)
	}
}

func (s *Server) postReading(w http.ResponseWriter, r *http.Request) {
	var req ingest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	reading, err := s.coordinator.Ingest(req)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Printf("Error ingesting reading: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)

	if err := json.NewEncoder(w).Encode(reading); err != nil {
		log.Printf("Error encoding reading response: %v", err)
	}
}

func (s *Server) getDevices(w http.ResponseWriter, _ *http.Request) {
	devices, err := s.store.ListDevices()
	if err != nil {
		log.Printf("Error listing devices: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, devices)
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		if errors.Is(err, db.ErrDeviceNotFound) {
			http.Error(w, "Device not found", http.StatusNotFound)
			return
		}

		log.Printf("Error getting device %s: %v", deviceID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, device)
}

func (s *Server) getDeviceHealth(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	state, ok := s.coordinator.GetHealthState(deviceID)
	if !ok {
		http.Error(w, "No health state for device", http.StatusNotFound)
		return
	}

	writeJSON(w, state)
}

func (s *Server) getDeviceReadings(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	since := time.Now().Add(-defaultReadingsWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid since parameter, expected RFC3339", http.StatusBadRequest)
			return
		}

		since = parsed
	}

	readings, err := s.store.QueryWindow(deviceID, since)
	if err != nil {
		log.Printf("Error querying readings for device %s: %v", deviceID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, readings)
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	filter := alerts.Filter{
		DeviceID: r.URL.Query().Get("device_id"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := alerts.Status(raw)
		filter.Status = &status
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	list, err := s.engine.List(filter)
	if err != nil {
		log.Printf("Error listing alerts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, list)
}

type acknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

func (s *Server) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	var req acknowledgeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	alert, err := s.engine.Acknowledge(id, req.AcknowledgedBy)
	if err != nil {
		if errors.Is(err, alerts.ErrAlertNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		log.Printf("Error acknowledging alert %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, alert)
}

func (s *Server) resolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid alert ID", http.StatusBadRequest)
		return
	}

	alert, err := s.engine.Resolve(id)
	if err != nil {
		if errors.Is(err, alerts.ErrAlertNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}

		log.Printf("Error resolving alert %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, alert)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving on addr and blocks until the listener fails or the
// server is stopped.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	return s.httpSrv.Shutdown(ctx)
}
