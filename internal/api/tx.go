package api

import (
	"io"
	"net/http"

	"roomledger.mini/rbl/internal/chain"
)

// @Title: Submit Signed Transaction
// @Route: POST /api/tx
// @Description: Verify and apply a signed transaction; the verified signer key is the acting account
// @Response: TxResult object
func (s *Service) HandleTx(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	txBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result := s.app.DeliverTx(txBytes)
	s.writeJSON(w, txStatus(result), result)
}

// txStatus maps transaction result codes onto HTTP status codes. The
// body always carries the full TxResult either way.
func txStatus(res chain.TxResult) int {
	switch res.Code {
	case chain.CodeTypeOK:
		return http.StatusOK
	case chain.CodeTypeEncodingError:
		return http.StatusBadRequest
	case chain.CodeTypeAuthError:
		return http.StatusUnauthorized
	default:
		return http.StatusUnprocessableEntity
	}
}
