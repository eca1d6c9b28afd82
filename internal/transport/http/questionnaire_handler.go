package http

import (
	"log/slog"
	"net/http"

	"asd-screening-service/internal/app"
	"asd-screening-service/internal/domain"
)

// QuestionnaireHandler exposes the questionnaire use cases over JSON.
type QuestionnaireHandler struct {
	service *app.QuestionnaireService
	logger  *slog.Logger
}

func NewQuestionnaireHandler(service *app.QuestionnaireService, logger *slog.Logger) *QuestionnaireHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionnaireHandler{service: service, logger: logger.With("component", "questionnaire_http")}
}

type answerRequest struct {
	Option string `json:"option" validate:"required"`
}

type scoreRequest struct {
	Answers map[int]string `json:"answers" validate:"required"`
}

func (h *QuestionnaireHandler) Questions(w http.ResponseWriter, r *http.Request) {
	bank, err := h.service.Questions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// Score evaluates an answer set held entirely by the client. Entries that
// match no question or no canonical option score zero rather than fail.
func (h *QuestionnaireHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.service.Evaluate(r.Context(), domain.AnswerSet(req.Answers))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuestionnaireHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	view, err := h.service.Current(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuestionnaireHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	var req answerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	view, err := h.service.Answer(r.Context(), user.ID, req.Option)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuestionnaireHandler) Retake(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	view, err := h.service.Retake(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *QuestionnaireHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	h.service.Leave(r.Context(), user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuestionnaireHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("questionnaire request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
