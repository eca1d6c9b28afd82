package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"asd-screening-service/internal/app"
	"asd-screening-service/internal/domain"
	"asd-screening-service/internal/game"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// GameHandler serves the activity catalog and the per-page game websocket.
type GameHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewGameHandler(service *app.GameService, logger *slog.Logger) *GameHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "game_http"),
	}
}

type inboundMessage struct {
	Type string `json:"type"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (h *GameHandler) Activities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Activities())
}

// AutoStart arms the one-shot signal so the next game page for kind starts
// on arrival.
func (h *GameHandler) AutoStart(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	kind, err := domain.ParseActivityKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.RequestAutoStart(r.Context(), user.ID, kind); err != nil {
		h.logger.Error("auto-start signal failed", "user", user.ID, "activity", string(kind), "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeWS mounts a controller for the lifetime of the connection. Every state
// change is pushed as a "state" message; the client drives the session with
// "start", "stop" and "reset".
func (h *GameHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	kind, err := domain.ParseActivityKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	ctrl, _, err := h.service.Mount(r.Context(), user.ID, kind)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	updates, cancel := ctrl.Subscribe()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var inflight sync.WaitGroup

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session", ctrl.ID(), "error", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	emitError := func(message string) {
		emit(outboundMessage{Type: "error", Payload: errorPayload{Message: message}})
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				emit(outboundMessage{Type: "state", Payload: state})
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				if err := ctrl.Start(context.Background()); err != nil && !errors.Is(err, domain.ErrControllerClosed) {
					emitError(startFailure(ctrl, err))
				}
			}()
		case "stop":
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				ctrl.Stop(context.Background())
			}()
		case "reset":
			if err := ctrl.Reset(); err != nil {
				emitError(err.Error())
			}
		default:
			emitError("unsupported message type")
		}
	}

	close(closeSignals)
	cancel()
	h.service.Unmount(context.Background(), ctrl.ID())
	inflight.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}

// startFailure picks the user-facing text for a failed start: guard errors
// verbatim, detection failures as recorded on the session.
func startFailure(ctrl *game.Controller, err error) string {
	if errors.Is(err, domain.ErrAlreadyRunning) || errors.Is(err, domain.ErrSessionBusy) {
		return err.Error()
	}
	if msg := ctrl.Snapshot().LastError; msg != "" {
		return msg
	}
	return err.Error()
}

