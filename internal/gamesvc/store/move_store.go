package store

import (
	"context"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MoveStore struct {
	db *pgxpool.Pool
}

func NewMoveStore(db *pgxpool.Pool) *MoveStore {
	return &MoveStore{db: db}
}

// AppendMoves writes the audit rows for one checkpoint. (game_id, seq) is
// unique and conflicts are skipped, so replaying the full move log after each
// round is idempotent.
func (s *MoveStore) AppendMoves(ctx context.Context, moves []*models.Move) error {
	if len(moves) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO moves (game_id, seq, turn_no, user_id, action, card, target_card, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (game_id, seq) DO NOTHING
	`
	for _, m := range moves {
		batch.Queue(query, m.GameID, m.Seq, m.TurnNo, m.UserID, m.Action, m.Card, m.TargetCard, m.PlayedAt)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range moves {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to append moves: %w", err)
		}
	}
	return nil
}

func (s *MoveStore) GetMovesByGameID(ctx context.Context, gameID string) ([]*models.Move, error) {
	query := `
		SELECT id, game_id, seq, turn_no, user_id, action, card, target_card, played_at, created_at
		FROM moves
		WHERE game_id = $1
		ORDER BY seq
	`

	rows, err := s.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []*models.Move
	for rows.Next() {
		var m models.Move
		err := rows.Scan(
			&m.ID,
			&m.GameID,
			&m.Seq,
			&m.TurnNo,
			&m.UserID,
			&m.Action,
			&m.Card,
			&m.TargetCard,
			&m.PlayedAt,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		moves = append(moves, &m)
	}

	return moves, nil
}
