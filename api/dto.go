/*
dto.go - Data transfer objects for API requests and responses

The wire shapes decouple the HTTP contract from the domain types.
Amounts arrive as XQC-denominated decimal strings and leave as
micro-unit values inside the result payload.
*/
package api

import "github.com/qora/testnet-faucet/faucet"

// TransferRequest is the body of POST /api/transfers. Amount and
// NodeList are optional; configuration supplies the defaults.
type TransferRequest struct {
	Address  string   `json:"address"`
	Amount   string   `json:"amount,omitempty"`
	NodeList []string `json:"node_list,omitempty"`
}

// TransferResponse wraps the orchestrator's classified result.
type TransferResponse struct {
	*faucet.TransferResult
}

// AddressTotalDTO is the response of GET /api/ledger/address/{address}.
type AddressTotalDTO struct {
	Address string        `json:"address"`
	Total   faucet.Amount `json:"total"`
}

// DateTotalDTO is the response of GET /api/ledger/date/{date}.
type DateTotalDTO struct {
	Date  string        `json:"date"`
	Total faucet.Amount `json:"total"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
