package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LobbyStore struct {
	db *pgxpool.Pool
}

func NewLobbyStore(db *pgxpool.Pool) *LobbyStore {
	return &LobbyStore{db: db}
}

// CreateLobby inserts the lobby and its settings in one transaction and
// returns the stored lobby.
func (s *LobbyStore) CreateLobby(ctx context.Context, lobby models.Lobby) (*models.Lobby, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lobbies (owner_id, name, is_private, status)
		VALUES ($1, $2, $3, 'waiting')
		RETURNING id, owner_id, name, is_private, status, created_at, updated_at
	`
	out := &models.Lobby{Settings: lobby.Settings}
	err = tx.QueryRow(ctx, query, lobby.OwnerID, lobby.Name, lobby.IsPrivate).Scan(
		&out.ID,
		&out.OwnerID,
		&out.Name,
		&out.IsPrivate,
		&out.Status,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby: %w", err)
	}

	settingsQuery := `
		INSERT INTO lobby_settings
			(lobby_id, max_players, card_count, allow_jokers, is_transferable, neighbor_throw_only, turn_time_limit_sec, rule_set)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	st := lobby.Settings
	_, err = tx.Exec(ctx, settingsQuery, out.ID,
		st.MaxPlayers, st.CardCount, st.AllowJokers, st.IsTransferable,
		st.NeighborThrowOnly, st.TurnTimeLimitSec, st.RuleSet)
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit lobby: %w", err)
	}
	return out, nil
}

func (s *LobbyStore) GetLobbyByID(ctx context.Context, lobbyID int64) (*models.Lobby, error) {
	query := `
		SELECT l.id, l.owner_id, l.name, l.is_private, l.status, l.created_at, l.updated_at,
		       s.max_players, s.card_count, s.allow_jokers, s.is_transferable,
		       s.neighbor_throw_only, s.turn_time_limit_sec, s.rule_set
		FROM lobbies l
		JOIN lobby_settings s ON s.lobby_id = l.id
		WHERE l.id = $1
	`

	lobby := &models.Lobby{}
	err := s.db.QueryRow(ctx, query, lobbyID).Scan(
		&lobby.ID,
		&lobby.OwnerID,
		&lobby.Name,
		&lobby.IsPrivate,
		&lobby.Status,
		&lobby.CreatedAt,
		&lobby.UpdatedAt,
		&lobby.Settings.MaxPlayers,
		&lobby.Settings.CardCount,
		&lobby.Settings.AllowJokers,
		&lobby.Settings.IsTransferable,
		&lobby.Settings.NeighborThrowOnly,
		&lobby.Settings.TurnTimeLimitSec,
		&lobby.Settings.RuleSet,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // lobby not found
		}
		return nil, fmt.Errorf("failed to get lobby by ID: %w", err)
	}

	return lobby, nil
}

// UpdateStatus moves the lobby through waiting -> playing -> closed.
func (s *LobbyStore) UpdateStatus(ctx context.Context, lobbyID int64, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE lobbies SET status = $2, updated_at = now() WHERE id = $1
	`, lobbyID, status)
	if err != nil {
		return fmt.Errorf("failed to update lobby status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lobby %d not found", lobbyID)
	}
	return nil
}

// ListOpenLobbies returns public lobbies still accepting players.
func (s *LobbyStore) ListOpenLobbies(ctx context.Context) ([]*models.Lobby, error) {
	query := `
		SELECT l.id, l.owner_id, l.name, l.is_private, l.status, l.created_at, l.updated_at,
		       s.max_players, s.card_count, s.allow_jokers, s.is_transferable,
		       s.neighbor_throw_only, s.turn_time_limit_sec, s.rule_set
		FROM lobbies l
		JOIN lobby_settings s ON s.lobby_id = l.id
		WHERE l.status = 'waiting' AND l.is_private = false
		ORDER BY l.created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lobbies []*models.Lobby
	for rows.Next() {
		lobby := &models.Lobby{}
		err := rows.Scan(
			&lobby.ID,
			&lobby.OwnerID,
			&lobby.Name,
			&lobby.IsPrivate,
			&lobby.Status,
			&lobby.CreatedAt,
			&lobby.UpdatedAt,
			&lobby.Settings.MaxPlayers,
			&lobby.Settings.CardCount,
			&lobby.Settings.AllowJokers,
			&lobby.Settings.IsTransferable,
			&lobby.Settings.NeighborThrowOnly,
			&lobby.Settings.TurnTimeLimitSec,
			&lobby.Settings.RuleSet,
		)
		if err != nil {
			return nil, err
		}
		lobbies = append(lobbies, lobby)
	}

	return lobbies, nil
}
