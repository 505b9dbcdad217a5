package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

// CreateGame writes the creation checkpoint row.
func (s *GameStore) CreateGame(ctx context.Context, game models.Game) (*models.Game, error) {
	query := `
		INSERT INTO games (id, lobby_id, trump_suit, trump_card, status, turn_no, deck_size, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, lobby_id, trump_suit, trump_card, status, turn_no, deck_size,
		          loser_id, started_at, finished_at, created_at, updated_at
	`

	out := &models.Game{}
	err := s.db.QueryRow(ctx, query,
		game.ID, game.LobbyID, game.TrumpSuit, game.TrumpCard,
		game.Status, game.TurnNo, game.DeckSize, game.StartedAt,
	).Scan(
		&out.ID,
		&out.LobbyID,
		&out.TrumpSuit,
		&out.TrumpCard,
		&out.Status,
		&out.TurnNo,
		&out.DeckSize,
		&out.LoserID,
		&out.StartedAt,
		&out.FinishedAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return out, nil
}

func (s *GameStore) GetGameByID(ctx context.Context, gameID string) (*models.Game, error) {
	query := `
		SELECT id, lobby_id, trump_suit, trump_card, status, turn_no, deck_size,
		       loser_id, started_at, finished_at, created_at, updated_at
		FROM games
		WHERE id = $1
	`

	game := &models.Game{}
	err := s.db.QueryRow(ctx, query, gameID).Scan(
		&game.ID,
		&game.LobbyID,
		&game.TrumpSuit,
		&game.TrumpCard,
		&game.Status,
		&game.TurnNo,
		&game.DeckSize,
		&game.LoserID,
		&game.StartedAt,
		&game.FinishedAt,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // game not found
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	return game, nil
}

// UpdateProgress refreshes the round checkpoint columns.
func (s *GameStore) UpdateProgress(ctx context.Context, gameID string, turnNo, deckSize int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE games SET turn_no = $2, deck_size = $3, updated_at = now()
		WHERE id = $1
	`, gameID, turnNo, deckSize)
	if err != nil {
		return fmt.Errorf("failed to update game progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}
	return nil
}

// FinishGame is terminal: status, loser and finished_at are written once and
// never updated again.
func (s *GameStore) FinishGame(ctx context.Context, gameID string, loserID *int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE games SET status = 'finished', loser_id = $2, finished_at = now(), updated_at = now()
		WHERE id = $1 AND status <> 'finished'
	`, gameID, loserID)
	if err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s not found or already finished", gameID)
	}
	return nil
}

// GetActiveGameByLobby returns the running game of a lobby, nil when none.
func (s *GameStore) GetActiveGameByLobby(ctx context.Context, lobbyID int64) (*models.Game, error) {
	query := `
		SELECT id, lobby_id, trump_suit, trump_card, status, turn_no, deck_size,
		       loser_id, started_at, finished_at, created_at, updated_at
		FROM games
		WHERE lobby_id = $1 AND status = 'in_progress'
		LIMIT 1
	`

	game := &models.Game{}
	err := s.db.QueryRow(ctx, query, lobbyID).Scan(
		&game.ID,
		&game.LobbyID,
		&game.TrumpSuit,
		&game.TrumpCard,
		&game.Status,
		&game.TurnNo,
		&game.DeckSize,
		&game.LoserID,
		&game.StartedAt,
		&game.FinishedAt,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active game: %w", err)
	}

	return game, nil
}
