package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/reward"
	"github.com/trash2cash/station-platform/pkg/submission"
)

const defaultTransactionLimit = 50

// depositRequest carries one material reading to commit.
type depositRequest struct {
	Material string  `json:"material"`
	Weight   float64 `json:"weight"`
}

// submissionData describes a committed submission on the wire.
type submissionData struct {
	ID        string  `json:"id"`
	Material  string  `json:"material"`
	Weight    float64 `json:"weight"`
	Reward    int64   `json:"reward"`
	CreatedAt string  `json:"created_at"`
}

// transactionsData is a page of submission history.
type transactionsData struct {
	Submissions []submissionData `json:"submissions"`
	Limit       int              `json:"limit"`
	Offset      int              `json:"offset"`
}

// sensorData is one simulated sensor reading with its prospective reward.
type sensorData struct {
	Material string  `json:"material"`
	Weight   float64 `json:"weight"`
	Reward   int64   `json:"reward"`
	ReadAt   string  `json:"read_at"`
}

func toSubmissionData(s *submission.Submission) submissionData {
	return submissionData{
		ID:        s.ID,
		Material:  string(s.Material),
		Weight:    s.Weight,
		Reward:    s.Reward,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// deposit handles POST /api/v1/deposit.
//
// @Summary      Deposit a material reading
// @Description  Commits the reading and credits the computed reward to the authenticated user's balance. The reward amount is computed server-side.
// @Tags         Deposit
// @Accept       json
// @Produce      json
// @Param        body  body  depositRequest  true  "Material and weight in kilograms"
// @Success      200  {object}  Response{data=submissionData}
// @Failure      400  {object}  Response
// @Failure      401  {object}  Response
// @Failure      500  {object}  Response
// @Security     BearerAuth
// @Router       /deposit [post]
func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req depositRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.deps.Pipeline.AcceptReading(r.Context(), userID, reward.Material(req.Material), req.Weight)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "deposit recorded", toSubmissionData(sub))
}

// listTransactions handles GET /api/v1/transactions.
//
// @Summary      List submission history
// @Description  Returns the authenticated user's submissions, newest first.
// @Tags         Deposit
// @Produce      json
// @Param        material  query  string   false  "Filter by material"
// @Param        limit     query  integer  false  "Page size (default 50)"
// @Param        offset    query  integer  false  "Results to skip"
// @Success      200  {object}  Response{data=transactionsData}
// @Failure      401  {object}  Response
// @Security     BearerAuth
// @Router       /transactions [get]
func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	opts := submission.ListOptions{
		Material: reward.Material(q.Get("material")),
		Limit:    defaultTransactionLimit,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Offset = n
		}
	}

	subs, err := h.deps.Pipeline.ListSubmissions(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]submissionData, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubmissionData(s))
	}

	writeData(w, "transactions", transactionsData{
		Submissions: out,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	})
}

// sensorReading handles GET /api/v1/sensor/reading.
//
// @Summary      Read the material sensor
// @Description  Returns the current sensor detection with the reward the reading would earn if deposited.
// @Tags         Sensor
// @Produce      json
// @Success      200  {object}  Response{data=sensorData}
// @Failure      401  {object}  Response
// @Security     BearerAuth
// @Router       /sensor/reading [get]
func (h *Handler) sensorReading(w http.ResponseWriter, _ *http.Request) {
	reading := h.deps.Sensor.Read()

	amount, err := h.deps.Pipeline.Quote(reading.Material, reading.Weight)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, "sensor reading", sensorData{
		Material: string(reading.Material),
		Weight:   reading.Weight,
		Reward:   amount,
		ReadAt:   reading.ReadAt.Format(time.RFC3339),
	})
}
