package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/kwickslot/internal/core/domain"
	"github.com/vncsmyrnk/kwickslot/internal/core/ports"
)

type ResponseHandler struct {
	service ports.ResponseService
	polls   *PollHandler
}

func NewResponseHandler(service ports.ResponseService, polls *PollHandler) *ResponseHandler {
	return &ResponseHandler{
		service: service,
		polls:   polls,
	}
}

type availabilityRequest struct {
	Date  string   `json:"date" validate:"required,datetime=2006-01-02"`
	Times []string `json:"times" validate:"dive,oneof=Morning Afternoon Evening"`
}

type submitRequest struct {
	Name         string                `json:"name" validate:"required"`
	Availability []availabilityRequest `json:"availability" validate:"required,min=1,dive"`
}

// draft folds repeated dates together; the merger owns every other rule.
func (req submitRequest) draft() domain.Draft {
	d := domain.Draft{
		Name:         req.Name,
		Availability: make(map[domain.Date][]domain.Slot, len(req.Availability)),
	}
	for _, a := range req.Availability {
		date := domain.Date(a.Date)
		slots := d.Availability[date]
		for _, t := range a.Times {
			slots = append(slots, domain.Slot(t))
		}
		d.Availability[date] = slots
	}
	return d
}

// SubmitResponse godoc
// @Summary      Submit or replace a respondent's availability
// @Accept       json
// @Produce      json
// @Param        id path string true "Poll ID"
// @Param        response body submitRequest true "Complete availability"
// @Success      200 {object} pollResponse
// @Failure      400 {object} errorResponse
// @Failure      409 {object} errorResponse
// @Failure      410 {object} errorResponse
// @Router       /polls/{id}/responses [post]
func (h *ResponseHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	poll, err := h.service.Submit(r.Context(), ports.SubmitInput{
		PollID: chi.URLParam(r, "id"),
		Draft:  req.draft(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPollResponse(poll, h.polls.now()))
}

// GetResponse returns one respondent's entry so a client can prefill an edit.
func (h *ResponseHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	resp, err := h.service.GetResponse(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if resp == nil {
		writeError(w, http.StatusNotFound, "response_not_found", "no response under that name")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
