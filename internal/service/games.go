package service

import (
	"context"
	"time"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/id"
	"github.com/colin969/exodos-launcher/internal/launchbox"
	"github.com/colin969/exodos-launcher/internal/store"
	"github.com/colin969/exodos-launcher/internal/taskqueue"
)

// GameResult is a changed game and what happened to its platform file.
type GameResult struct {
	Game    *domain.Game          `json:"game"`
	Outcome launchbox.SaveOutcome `json:"outcome"`
}

// AddGameRequest describes a new game. Title is required.
type AddGameRequest struct {
	Platform string           `json:"platform" validate:"required"`
	ID       string           `json:"id,omitempty" validate:"omitempty,uuid"`
	Fields   domain.GamePatch `json:"fields"`
}

// LoadPlatformsResult lists what loaded and what did not.
type LoadPlatformsResult struct {
	Platforms []domain.PlatformSummary `json:"platforms"`
	Errors    []*store.LoadError       `json:"errors"`
}

// LoadPlatforms (re)loads every platform file under path, or under the
// configured directory when path is empty. Broken files are reported in
// the result without failing the call.
func (s *LibraryService) LoadPlatforms(ctx context.Context, path string) (*LoadPlatformsResult, error) {
	if path == "" {
		path = s.cfg.PlatformsPath
	}
	res, err := s.games.LoadPlatforms(ctx, path)
	if err != nil {
		return nil, err
	}
	s.stages[StagePlatforms].complete()

	return &LoadPlatformsResult{
		Platforms: s.games.Platforms(),
		Errors:    res.Errors,
	}, nil
}

// Platforms returns a summary of every loaded platform.
func (s *LibraryService) Platforms(ctx context.Context) ([]domain.PlatformSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.games.Platforms(), nil
}

// GetGame returns a game by id.
func (s *LibraryService) GetGame(ctx context.Context, gameID string) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, _, ok := s.games.FindGame(gameID)
	if !ok {
		return nil, errors.NotFoundf("game %q not found", gameID)
	}
	return g, nil
}

// MutateGame applies patch to a game and saves its platform file.
func (s *LibraryService) MutateGame(ctx context.Context, gameID string, patch domain.GamePatch) (*GameResult, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, errors.Validationf("patch for game %q changes nothing", gameID)
	}
	_, owner, ok := s.games.FindGame(gameID)
	if !ok {
		return nil, errors.NotFoundf("game %q not found", gameID)
	}

	fut := taskqueue.Enqueue(s.queue, platformKey(owner.Name), func(ctx context.Context) (*GameResult, error) {
		var outcome launchbox.SaveOutcome
		g, err := s.games.UpdateGame(ctx, gameID, func(g *domain.Game) error {
			patch.Apply(g)
			return nil
		}, s.persistPlatform(&outcome))
		if err != nil {
			return nil, err
		}
		return &GameResult{Game: g, Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("game updated", "game_id", gameID, "platform", owner.Name, "outcome", res.Outcome)
	return res, nil
}

// AddGame creates a game in an existing platform.
func (s *LibraryService) AddGame(ctx context.Context, req AddGameRequest) (*GameResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Fields.Title == nil {
		return nil, errors.ValidationWithDetails("validation failed: title is required",
			map[string]string{"title": "is required"})
	}
	if _, ok := s.games.Platform(req.Platform); !ok {
		return nil, errors.NotFoundf("platform %q not found", req.Platform)
	}

	g := &domain.Game{
		ID:        req.ID,
		DateAdded: time.Now().Format(time.RFC3339),
	}
	if g.ID == "" {
		g.ID = id.NewGameID()
	}
	req.Fields.Apply(g)

	fut := taskqueue.Enqueue(s.queue, platformKey(req.Platform), func(ctx context.Context) (*GameResult, error) {
		var outcome launchbox.SaveOutcome
		added, err := s.games.AddGame(ctx, req.Platform, g, s.persistPlatform(&outcome))
		if err != nil {
			return nil, err
		}
		return &GameResult{Game: added, Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("game added", "game_id", res.Game.ID, "platform", req.Platform, "outcome", res.Outcome)
	return res, nil
}

// RemoveGame deletes a game from its platform. Playlist entries pointing
// at it are kept; they simply stop resolving.
func (s *LibraryService) RemoveGame(ctx context.Context, gameID string) (*GameResult, error) {
	_, owner, ok := s.games.FindGame(gameID)
	if !ok {
		return nil, errors.NotFoundf("game %q not found", gameID)
	}

	fut := taskqueue.Enqueue(s.queue, platformKey(owner.Name), func(ctx context.Context) (*GameResult, error) {
		var outcome launchbox.SaveOutcome
		removed, err := s.games.RemoveGame(ctx, gameID, s.persistPlatform(&outcome))
		if err != nil {
			return nil, err
		}
		return &GameResult{Game: removed, Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("game removed", "game_id", gameID, "platform", owner.Name, "outcome", res.Outcome)
	return res, nil
}

// PlatformResult is a changed platform and what happened to its file.
type PlatformResult struct {
	Platform domain.PlatformSummary `json:"platform"`
	Outcome  launchbox.SaveOutcome  `json:"outcome"`
}

// AddPlatform creates an empty platform file in lib.
func (s *LibraryService) AddPlatform(ctx context.Context, name, lib string) (*PlatformResult, error) {
	if err := s.validator.Validate(struct {
		Name    string `json:"name" validate:"notblank,excludesall=/\\"`
		Library string `json:"library" validate:"omitempty,excludesall=/\\"`
	}{name, lib}); err != nil {
		return nil, err
	}

	fut := taskqueue.Enqueue(s.queue, platformKey(name), func(ctx context.Context) (*PlatformResult, error) {
		var outcome launchbox.SaveOutcome
		p, err := s.games.AddPlatform(ctx, name, lib, s.persistPlatform(&outcome))
		if err != nil {
			return nil, err
		}
		return &PlatformResult{Platform: p.Summary(), Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("platform added", "platform", name, "library", res.Platform.Library, "outcome", res.Outcome)
	return res, nil
}

// RemovePlatform deletes a platform and its file.
func (s *LibraryService) RemovePlatform(ctx context.Context, name string) (*PlatformResult, error) {
	p, ok := s.games.Platform(name)
	if !ok {
		return nil, errors.NotFoundf("platform %q not found", name)
	}

	fut := taskqueue.Enqueue(s.queue, platformKey(name), func(ctx context.Context) (*PlatformResult, error) {
		var outcome launchbox.SaveOutcome
		if err := s.games.RemovePlatform(ctx, name, s.removePlatformFile(&outcome)); err != nil {
			return nil, err
		}
		return &PlatformResult{Platform: p.Summary(), Outcome: outcome}, nil
	})
	res, err := fut.Wait(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("platform removed", "platform", name, "outcome", res.Outcome)
	return res, nil
}
