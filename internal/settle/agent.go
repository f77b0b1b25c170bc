package settle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roomledger.mini/rbl/internal/logger"
	"roomledger.mini/rbl/internal/types"
)

// PayoutRequest is the payload POSTed to a payout agent.
type PayoutRequest struct {
	To     types.AccountID `json:"to"`
	Amount types.Amount    `json:"amount"`
}

// Agent forwards payouts to an external payout agent over HTTP. The
// agent runs with access to the actual funds; keeping it out of process
// means this node never holds payment credentials.
type Agent struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewAgent creates an Agent that POSTs payouts to url. log may be nil.
func NewAgent(url string, log *logger.Logger) *Agent {
	return &Agent{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Transfer POSTs the payout to the agent. Any non-200 response is a
// failure; the caller decides how to surface it.
func (a *Agent) Transfer(to types.AccountID, amount types.Amount) error {
	body, err := json.Marshal(PayoutRequest{To: to, Amount: amount})
	if err != nil {
		return fmt.Errorf("encode payout request: %w", err)
	}

	resp, err := a.client.Post(a.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payout agent POST failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payout agent returned status %d", resp.StatusCode)
	}

	if a.log != nil {
		a.log.Info(fmt.Sprintf("payout of %d to %s dispatched via agent", amount, to))
	}
	return nil
}

// ServeAgent runs a minimal payout agent: it accepts PayoutRequests on
// POST /payout and hands them to execute. Deployments that settle funds
// out of process point a node's payout agent URL at this.
func ServeAgent(addr string, execute func(PayoutRequest) error) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/payout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req PayoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("invalid request"))
			return
		}
		if err := execute(req); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("settled"))
	})
	return http.ListenAndServe(addr, mux)
}
