/*
handlers.go - HTTP handlers for the faucet front end

ENDPOINTS:
  POST /api/transfers                   Request a transfer (JSON body)
  GET  /api/transfers                   Request a transfer (query params)
  GET  /api/ledger/address/{address}    Cumulative total for an address
  GET  /api/ledger/date/{date}          Aggregate total for a date
  GET  /health                          Liveness

STATUS CODES:
  Any result the orchestrator returns - acceptance, limit rejection,
  terminal node failure, exhaustion - serializes to 200 with the
  classified result as the body; the classification lives in the
  payload, not the status line. 400 covers requests that never reach
  the orchestrator (malformed body, unparseable amount). 500 covers
  orchestrator failures, with the error detail included in the body -
  a deliberate transparency choice for a test-network tool.
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/qora/testnet-faucet/faucet"
)

// TransferSender is the orchestrator surface the handlers need.
// Satisfied by *faucet.Service; tests substitute a stub.
type TransferSender interface {
	SendTransfer(ctx context.Context, recipient string, amount faucet.Amount, nodes []string) (*faucet.TransferResult, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service       TransferSender
	Store         faucet.LedgerStore
	DefaultAmount faucet.Amount
	NodeList      []string
	Log           zerolog.Logger
}

// NewHandler creates a handler around the orchestrator and ledger.
func NewHandler(service TransferSender, store faucet.LedgerStore, defaultAmount faucet.Amount, nodeList []string, log zerolog.Logger) *Handler {
	return &Handler{
		Service:       service,
		Store:         store,
		DefaultAmount: defaultAmount,
		NodeList:      nodeList,
		Log:           log,
	}
}

// SendTransfer handles POST /api/transfers.
func (h *Handler) SendTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.sendTransfer(w, r, req)
}

// SendTransferQuery handles GET /api/transfers, the query-parameter
// form used by browser-facing clients:
// ?address=...&amount=...&nodeList=a,b,c
func (h *Handler) SendTransferQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := TransferRequest{
		Address: q.Get("address"),
		Amount:  q.Get("amount"),
	}
	if nodes := q.Get("nodeList"); nodes != "" {
		req.NodeList = strings.Split(nodes, ",")
	}
	h.sendTransfer(w, r, req)
}

func (h *Handler) sendTransfer(w http.ResponseWriter, r *http.Request, req TransferRequest) {
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required", nil)
		return
	}

	amount := h.DefaultAmount
	if req.Amount != "" {
		parsed, err := faucet.ParseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		amount = parsed
	}

	nodes := req.NodeList
	if len(nodes) == 0 {
		nodes = h.NodeList
	}

	result, err := h.Service.SendTransfer(r.Context(), req.Address, amount, nodes)
	if err != nil {
		h.Log.Error().Err(err).Str("address", req.Address).Msg("transfer failed")
		writeError(w, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{result})
}

// GetAddressTotal handles GET /api/ledger/address/{address}.
func (h *Handler) GetAddressTotal(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	total, err := h.Store.TotalByAddress(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, AddressTotalDTO{Address: address, Total: total})
}

// GetDateTotal handles GET /api/ledger/date/{date}, date as YYYYMMDD.
func (h *Handler) GetDateTotal(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	stamp, err := strconv.Atoi(raw)
	if err != nil || stamp < 19700101 || stamp > 99991231 {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYYMMDD)", err)
		return
	}

	date := faucet.DateStamp(stamp)
	total, err := h.Store.TotalByDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, DateTotalDTO{Date: date.String(), Total: total})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
