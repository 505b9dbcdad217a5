package store

import (
	"context"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"

	"github.com/jackc/pgx"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LobbyPlayerStore struct {
	db *pgxpool.Pool
}

func NewLobbyPlayerStore(db *pgxpool.Pool) *LobbyPlayerStore {
	return &LobbyPlayerStore{db: db}
}

func (s *LobbyPlayerStore) GetPlayersByLobbyID(ctx context.Context, lobbyID int64) ([]*models.LobbyPlayer, error) {
	query := `
		SELECT id, lobby_id, user_id, status, created_at, updated_at
		FROM lobby_players
		WHERE lobby_id = $1 AND status <> 'left'
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, lobbyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.LobbyPlayer
	for rows.Next() {
		var lp models.LobbyPlayer
		err := rows.Scan(
			&lp.ID,
			&lp.LobbyID,
			&lp.UserID,
			&lp.Status,
			&lp.CreatedAt,
			&lp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &lp)
	}

	return players, nil
}

// It fails with an error if:
// - The lobby is full (the locked CTE returns no row once max_players is reached).
// - The user has already joined the lobby (unique_lobby_user constraint).
// - Any foreign key (lobby_id, user_id) is invalid.
// Returns the created LobbyPlayer on success, or an error on failure.
func (s *LobbyPlayerStore) JoinLobbyIfOpen(ctx context.Context, lobbyID int64, userID int64) (*models.LobbyPlayer, error) {
	// Validate inputs
	if lobbyID <= 0 {
		return nil, fmt.Errorf("invalid lobby ID: %d", lobbyID)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user ID: %d", userID)
	}

	// CTE locks the lobby row, enforces status='waiting' and the seat cap
	const query = `
WITH locked_lobby AS (
  SELECT l.id
  FROM lobbies l
  JOIN lobby_settings s ON s.lobby_id = l.id
  WHERE l.id = $1
    AND l.status = 'waiting'
    AND (SELECT count(*) FROM lobby_players lp
         WHERE lp.lobby_id = l.id AND lp.status <> 'left') < s.max_players
  FOR UPDATE OF l
)
INSERT INTO lobby_players (lobby_id, user_id, status)
SELECT ll.id, $2, 'waiting'
FROM locked_lobby ll
RETURNING id, lobby_id, user_id, status, created_at, updated_at;
`
	lp := &models.LobbyPlayer{}
	err := s.db.QueryRow(ctx, query, lobbyID, userID).Scan(
		&lp.ID,
		&lp.LobbyID,
		&lp.UserID,
		&lp.Status,
		&lp.CreatedAt,
		&lp.UpdatedAt,
	)
	if err != nil {
		// zero rows means the lobby isn't waiting, is full, or doesn't exist
		if err == pgxv5.ErrNoRows {
			return nil, fmt.Errorf("cannot join lobby %d: full, not waiting, or not found", lobbyID)
		}
		// unique constraint violations
		if pgErr, ok := err.(*pgx.PgError); ok && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "unique_lobby_user" {
				return nil, fmt.Errorf("user %d has already joined lobby %d", userID, lobbyID)
			}
		}
		// foreign key violations
		if pgErr, ok := err.(*pgx.PgError); ok && pgErr.Code == "23503" {
			return nil, fmt.Errorf("invalid reference: %s", pgErr.Message)
		}
		return nil, fmt.Errorf("failed to join lobby: %w", err)
	}

	return lp, nil
}

// UpdatePlayerStatus marks one lobby member waiting/ready/playing/left.
func (s *LobbyPlayerStore) UpdatePlayerStatus(ctx context.Context, lobbyID, userID int64, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE lobby_players SET status = $3, updated_at = now()
		WHERE lobby_id = $1 AND user_id = $2
	`, lobbyID, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update lobby player status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d is not in lobby %d", userID, lobbyID)
	}
	return nil
}

// MarkAllPlaying flips every ready member to playing when the game starts.
func (s *LobbyPlayerStore) MarkAllPlaying(ctx context.Context, lobbyID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE lobby_players SET status = 'playing', updated_at = now()
		WHERE lobby_id = $1 AND status = 'ready'
	`, lobbyID)
	if err != nil {
		return fmt.Errorf("failed to mark lobby players playing: %w", err)
	}
	return nil
}
