package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GamePlayerStore struct {
	db *pgxpool.Pool
}

func NewGamePlayerStore(db *pgxpool.Pool) *GamePlayerStore {
	return &GamePlayerStore{db: db}
}

func (s *GamePlayerStore) GetPlayersByGameID(ctx context.Context, gameID string) ([]*models.GamePlayer, error) {
	query := `
		SELECT id, game_id, user_id, seat_position, cards_remaining, status, created_at, updated_at
		FROM game_players
		WHERE game_id = $1
		ORDER BY seat_position
	`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.GamePlayer
	for rows.Next() {
		var gp models.GamePlayer
		err := rows.Scan(
			&gp.ID,
			&gp.GameID,
			&gp.UserID,
			&gp.SeatPosition,
			&gp.CardsRemaining,
			&gp.Status,
			&gp.CreatedAt,
			&gp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &gp)
	}

	return players, nil
}

// CreateSeats bulk-inserts the seating for a new game in one batch.
func (s *GamePlayerStore) CreateSeats(ctx context.Context, players []*models.GamePlayer) error {
	if len(players) == 0 {
		return fmt.Errorf("no seats to create")
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO game_players (game_id, user_id, seat_position, cards_remaining, status)
		VALUES ($1, $2, $3, $4, 'playing')
	`
	for _, gp := range players {
		batch.Queue(query, gp.GameID, gp.UserID, gp.SeatPosition, gp.CardsRemaining)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range players {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create game seats: %w", err)
		}
	}
	return nil
}

// UpdateSeat refreshes one seat's checkpoint columns.
func (s *GamePlayerStore) UpdateSeat(ctx context.Context, gameID string, userID int64, cardsRemaining int, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE game_players SET cards_remaining = $3, status = $4, updated_at = now()
		WHERE game_id = $1 AND user_id = $2
	`, gameID, userID, cardsRemaining, status)
	if err != nil {
		return fmt.Errorf("failed to update seat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d has no seat in game %s", userID, gameID)
	}
	return nil
}

// GetActiveGameForUser reports the running game a user sits in, nil when none.
func (s *GamePlayerStore) GetActiveGameForUser(ctx context.Context, userID int64) (*models.GamePlayer, error) {
	query := `
		SELECT gp.id, gp.game_id, gp.user_id, gp.seat_position, gp.cards_remaining, gp.status, gp.created_at, gp.updated_at
		FROM game_players gp
		JOIN games g ON g.id = gp.game_id
		WHERE gp.user_id = $1 AND g.status = 'in_progress' AND gp.status = 'playing'
		LIMIT 1
	`

	gp := &models.GamePlayer{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&gp.ID,
		&gp.GameID,
		&gp.UserID,
		&gp.SeatPosition,
		&gp.CardsRemaining,
		&gp.Status,
		&gp.CreatedAt,
		&gp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active game for user: %w", err)
	}

	return gp, nil
}
