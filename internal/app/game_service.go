package app

import (
	"context"
	"errors"
	"log/slog"

	"asd-screening-service/internal/domain"
	"asd-screening-service/internal/game"
	"github.com/google/uuid"
)

// ControllerRepository tracks mounted game controllers by session id.
type ControllerRepository interface {
	Put(ctrl *game.Controller)
	Get(sessionID string) (*game.Controller, bool)
	Delete(sessionID string)
}

// AutoStartSignals stores one-shot "start on arrival" flags per user and activity.
type AutoStartSignals interface {
	Set(ctx context.Context, userID string, kind domain.ActivityKind) error
	// Consume reports whether a signal was present and removes it.
	Consume(ctx context.Context, userID string, kind domain.ActivityKind) (bool, error)
}

// GameService mounts and tears down game controllers.
type GameService struct {
	client      game.Client
	controllers ControllerRepository
	signals     AutoStartSignals
	opts        game.Options
	logger      *slog.Logger
	newID       func() string
}

func NewGameService(client game.Client, controllers ControllerRepository, signals AutoStartSignals, opts game.Options) *GameService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		client:      client,
		controllers: controllers,
		signals:     signals,
		opts:        opts,
		logger:      logger.With("component", "game_service"),
		newID:       uuid.NewString,
	}
}

// Activities returns the static how-to-play catalog.
func (s *GameService) Activities() []domain.Activity {
	return Activities()
}

// RequestAutoStart arms the one-shot signal consumed by the next Mount of kind.
func (s *GameService) RequestAutoStart(ctx context.Context, userID string, kind domain.ActivityKind) error {
	return s.signals.Set(ctx, userID, kind)
}

// Mount creates a controller for kind. If an auto-start signal is pending
// for the user it is consumed and Start runs once in the background.
func (s *GameService) Mount(ctx context.Context, userID string, kind domain.ActivityKind) (*game.Controller, bool, error) {
	if _, err := domain.ParseActivityKind(string(kind)); err != nil {
		return nil, false, err
	}

	ctrl := game.NewController(s.newID(), kind, s.client, s.opts)
	s.controllers.Put(ctrl)

	autoStart, err := s.signals.Consume(ctx, userID, kind)
	if err != nil {
		s.logger.Warn("auto-start signal lookup failed", "user", userID, "activity", string(kind), "error", err)
		autoStart = false
	}
	if autoStart {
		go func() {
			if err := ctrl.Start(context.Background()); err != nil && !errors.Is(err, domain.ErrControllerClosed) {
				s.logger.Info("auto-start failed", "session", ctrl.ID(), "error", err)
			}
		}()
	}
	s.logger.Info("game mounted", "session", ctrl.ID(), "user", userID, "activity", string(kind), "auto_start", autoStart)
	return ctrl, autoStart, nil
}

// Controller looks up a mounted controller.
func (s *GameService) Controller(sessionID string) (*game.Controller, error) {
	ctrl, ok := s.controllers.Get(sessionID)
	if !ok {
		return nil, domain.ErrControllerNotFound
	}
	return ctrl, nil
}

// Unmount ends a running session (best effort), tears the controller down
// and forgets it.
func (s *GameService) Unmount(ctx context.Context, sessionID string) {
	ctrl, ok := s.controllers.Get(sessionID)
	if !ok {
		return
	}
	ctrl.Stop(ctx)
	ctrl.Close()
	s.controllers.Delete(sessionID)
	s.logger.Info("game unmounted", "session", sessionID)
}
