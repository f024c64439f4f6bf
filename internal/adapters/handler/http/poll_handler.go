package http

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/kwickslot/internal/core/consensus"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	now     func() time.Time
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
		now:     time.Now,
	}
}

type createPollRequest struct {
	Name      string     `json:"name" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type pollResponse struct {
	*domain.Poll
	Status      domain.PollStatus `json:"status"`
	SharePath   string            `json:"share_path"`
	ResultsPath string            `json:"results_path"`
}

type resultsResponse struct {
	PollID      string            `json:"poll_id"`
	Name        string            `json:"name"`
	Status      domain.PollStatus `json:"status"`
	Respondents int               `json:"respondents"`
	BestDates   []domain.Date     `json:"best_dates"`
	Rows        []consensus.Row   `json:"rows"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	ExpiresIn   string            `json:"expires_in,omitempty"`
	SharePath   string            `json:"share_path"`
}

func sharePath(poll *domain.Poll) string {
	return "/poll/" + poll.ID.String()
}

func resultsPath(poll *domain.Poll) string {
	return sharePath(poll) + "/results"
}

func newPollResponse(poll *domain.Poll, now time.Time) pollResponse {
	if poll.Responses == nil {
		poll.Responses = []domain.Response{}
	}
	return pollResponse{
		Poll:        poll,
		Status:      poll.Status(now),
		SharePath:   sharePath(poll),
		ResultsPath: resultsPath(poll),
	}
}

// CreatePoll godoc
// @Summary      Create an availability poll
// @Accept       json
// @Produce      json
// @Param        poll body createPollRequest true "Poll name and optional expiry"
// @Success      201 {object} pollResponse
// @Failure      400 {object} errorResponse
// @Router       /polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	poll, err := h.service.Create(r.Context(), ports.CreatePollInput{
		Name:      req.Name,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newPollResponse(poll, h.now()))
}

// GetPoll godoc
// @Summary      Get a poll document
// @Produce      json
// @Param        id path string true "Poll ID"
// @Success      200 {object} pollResponse
// @Failure      404 {object} errorResponse
// @Router       /polls/{id} [get]
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPollResponse(poll, h.now()))
}

// GetResults godoc
// @Summary      Get the consensus view of a poll
// @Produce      json
// @Param        id path string true "Poll ID"
// @Success      200 {object} resultsResponse
// @Failure      404 {object} errorResponse
// @Router       /polls/{id}/results [get]
func (h *PollHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := resultsResponse{
		PollID:      res.Poll.ID.String(),
		Name:        res.Poll.Name,
		Status:      res.Status,
		Respondents: res.Consensus.Respondents,
		BestDates:   res.Consensus.BestDates,
		Rows:        res.Consensus.Rows(),
		ExpiresAt:   res.Poll.ExpiresAt,
		SharePath:   sharePath(res.Poll),
	}
	if res.Poll.ExpiresAt != nil {
		out.ExpiresIn = humanize.RelTime(*res.Poll.ExpiresAt, h.now(), "ago", "from now")
	}

	writeJSON(w, http.StatusOK, out)
}
