package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foolsarena/durak-services/internal/gamesvc/engine"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const archiveCollection = "finished_games"

// MoveArchiveStore keeps the full snapshot and move log of finished games in
// mongo. Documents expire through the TTL index on expires_at; the relational
// rows stay as the permanent record.
type MoveArchiveStore struct {
	db        *mongo.Database
	retention time.Duration
}

type archivedGame struct {
	GameID    string          `bson:"game_id"`
	LobbyID   int64           `bson:"lobby_id"`
	Snapshot  engine.Snapshot `bson:"snapshot"`
	CreatedAt time.Time       `bson:"created_at"`
	ExpiresAt time.Time       `bson:"expires_at"`
}

func NewMoveArchiveStore(db *mongo.Database, retention time.Duration) *MoveArchiveStore {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &MoveArchiveStore{db: db, retention: retention}
}

func (s *MoveArchiveStore) CollectionName() string {
	return archiveCollection
}

// Archive stores one finished game's snapshot.
func (s *MoveArchiveStore) Archive(ctx context.Context, lobbyID int64, snap engine.Snapshot) error {
	now := time.Now()
	doc := archivedGame{
		GameID:    snap.GameID,
		LobbyID:   lobbyID,
		Snapshot:  snap,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}

	_, err := s.db.Collection(archiveCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to archive game %s: %w", snap.GameID, err)
	}
	return nil
}

// GetByGameID fetches an archived snapshot, nil when expired or never stored.
func (s *MoveArchiveStore) GetByGameID(ctx context.Context, gameID string) (*engine.Snapshot, error) {
	var doc archivedGame
	err := s.db.Collection(archiveCollection).
		FindOne(ctx, bson.M{"game_id": gameID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get archived game %s: %w", gameID, err)
	}
	return &doc.Snapshot, nil
}
