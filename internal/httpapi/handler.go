// Package httpapi exposes the gateway's REST surface.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/ghostspeak/ghostgate/internal/domain/agent"
	"github.com/ghostspeak/ghostgate/internal/gateway"
	"github.com/ghostspeak/ghostgate/internal/metrics"
	"github.com/ghostspeak/ghostgate/internal/payment"
	"github.com/ghostspeak/ghostgate/pkg/logger"
)

// handler bundles the HTTP endpoints over the gateway facade.
type handler struct {
	gw  *gateway.Service
	log *logger.Logger
}

// Options tune the handler surface.
type Options struct {
	// PaidRequestsPerSecond bounds the paid endpoint; zero selects 5/s.
	PaidRequestsPerSecond float64
}

// NewHandler returns the router exposing the gateway REST API.
func NewHandler(gw *gateway.Service, log *logger.Logger, opts Options) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{gw: gw, log: log}

	rps := opts.PaidRequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	limiter := rate.NewLimiter(rate.Limit(rps), int(rps)+1)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/agents/{address}/score", h.score).Methods(http.MethodGet)
	r.Handle("/v1/agents/{address}/services/{serviceID}", rateLimited(limiter, http.HandlerFunc(h.paidService))).Methods(http.MethodPost)
	r.HandleFunc("/v1/agents/{address}/cache", h.invalidate).Methods(http.MethodDelete)

	return metrics.InstrumentHandler(requestLog(log, r))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "ghostgate",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) score(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	view, err := h.gw.GetScore(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) paidService(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]
	serviceID := vars["serviceID"]

	claim, err := decodeClaim(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.gw.RequestPaidService(r.Context(), address, serviceID, claim)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentRejected) {
			writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
				"status": payment.StatusRejected,
				"error":  err.Error(),
			})
			return
		}
		if errors.Is(err, payment.ErrVerifierUnreachable) {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeDomainError(w, err)
		return
	}

	if result.Status == payment.StatusRequired {
		writeJSON(w, http.StatusPaymentRequired, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) invalidate(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !agent.ValidAddress(address) {
		writeError(w, http.StatusBadRequest, agent.ErrInvalidAddress)
		return
	}
	h.gw.Invalidate(address)
	w.WriteHeader(http.StatusNoContent)
}

// decodeClaim reads an optional claim body. An empty body means the caller
// supplied no payment.
func decodeClaim(body io.ReadCloser) (*payment.Claim, error) {
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var payload struct {
		Claim *payment.Claim `json:"claim"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Claim != nil && payload.Claim.SignatureToken == "" {
		return nil, errors.New("claim.signature_token is required")
	}
	return payload.Claim, nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, agent.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, agent.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err)
	case errors.Is(err, agent.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
