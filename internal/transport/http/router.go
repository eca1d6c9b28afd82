package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups what NewRouter mounts.
type Handlers struct {
	Questionnaire *QuestionnaireHandler
	Games         *GameHandler
	Health        *HealthHandler
	Auth          Authenticator
}

// NewRouter wires the public API. Per-user routes sit behind RequireUser.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/questionnaire/questions", h.Questionnaire.Questions).Methods(http.MethodGet)
	api.HandleFunc("/questionnaire/score", h.Questionnaire.Score).Methods(http.MethodPost)
	api.HandleFunc("/games", h.Games.Activities).Methods(http.MethodGet)

	guarded := r.NewRoute().Subrouter()
	guarded.Use(RequireUser(h.Auth))
	guarded.HandleFunc("/api/questionnaire", h.Questionnaire.Current).Methods(http.MethodGet)
	guarded.HandleFunc("/api/questionnaire", h.Questionnaire.Leave).Methods(http.MethodDelete)
	guarded.HandleFunc("/api/questionnaire/answers", h.Questionnaire.Answer).Methods(http.MethodPost)
	guarded.HandleFunc("/api/questionnaire/retake", h.Questionnaire.Retake).Methods(http.MethodPost)
	guarded.HandleFunc("/api/games/{kind}/autostart", h.Games.AutoStart).Methods(http.MethodPost)
	guarded.HandleFunc("/ws/games/{kind}", h.Games.ServeWS).Methods(http.MethodGet)
	return r
}
