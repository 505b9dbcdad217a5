package service

import (
	"context"
	"fmt"

	"github.com/foolsarena/durak-services/internal/gamesvc/engine"
	"github.com/foolsarena/durak-services/internal/gamesvc/models"
	"github.com/foolsarena/durak-services/internal/gamesvc/store"
)

type LobbyService struct {
	lobbyStore       *store.LobbyStore
	lobbyPlayerStore *store.LobbyPlayerStore
}

func NewLobbyService(lobbyStore *store.LobbyStore, lobbyPlayerStore *store.LobbyPlayerStore) *LobbyService {
	return &LobbyService{
		lobbyStore:       lobbyStore,
		lobbyPlayerStore: lobbyPlayerStore,
	}
}

// validateSettings rejects settings no game could be dealt from.
func validateSettings(st models.LobbySettings) error {
	switch st.CardCount {
	case 24, 36, 52:
	default:
		return fmt.Errorf("invalid card count %d, must be 24, 36 or 52", st.CardCount)
	}
	if st.MaxPlayers < 2 {
		return fmt.Errorf("lobby needs room for at least 2 players")
	}

	// every seat must be dealable plus a trump card
	total := st.CardCount
	if st.AllowJokers {
		total += 2
	}
	if st.MaxPlayers*engine.DefaultHandSize+1 > total {
		return fmt.Errorf("%d cards cannot serve %d players", total, st.MaxPlayers)
	}
	if st.TurnTimeLimitSec < 0 {
		return fmt.Errorf("turn time limit cannot be negative")
	}
	return nil
}

// CreateLobby validates the settings, stores the lobby and seats the owner.
func (s *LobbyService) CreateLobby(ctx context.Context, lobby models.Lobby) (*models.Lobby, error) {
	if err := validateSettings(lobby.Settings); err != nil {
		return nil, err
	}

	created, err := s.lobbyStore.CreateLobby(ctx, lobby)
	if err != nil {
		return nil, err
	}

	// the owner joins their own lobby right away
	if _, err := s.lobbyPlayerStore.JoinLobbyIfOpen(ctx, created.ID, created.OwnerID); err != nil {
		return nil, fmt.Errorf("lobby created but owner could not join: %w", err)
	}

	return created, nil
}

func (s *LobbyService) GetLobby(ctx context.Context, lobbyID int64) (*models.Lobby, error) {
	return s.lobbyStore.GetLobbyByID(ctx, lobbyID)
}

func (s *LobbyService) GetPlayers(ctx context.Context, lobbyID int64) ([]*models.LobbyPlayer, error) {
	return s.lobbyPlayerStore.GetPlayersByLobbyID(ctx, lobbyID)
}

func (s *LobbyService) ListOpenLobbies(ctx context.Context) ([]*models.Lobby, error) {
	return s.lobbyStore.ListOpenLobbies(ctx)
}

// JoinLobby seats a user while the lobby is waiting and has room.
func (s *LobbyService) JoinLobby(ctx context.Context, lobbyID, userID int64) (*models.LobbyPlayer, error) {
	return s.lobbyPlayerStore.JoinLobbyIfOpen(ctx, lobbyID, userID)
}

// LeaveLobby marks the member left; a lobby abandoned by everyone closes.
func (s *LobbyService) LeaveLobby(ctx context.Context, lobbyID, userID int64) error {
	if err := s.lobbyPlayerStore.UpdatePlayerStatus(ctx, lobbyID, userID, "left"); err != nil {
		return err
	}

	players, err := s.lobbyPlayerStore.GetPlayersByLobbyID(ctx, lobbyID)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return s.lobbyStore.UpdateStatus(ctx, lobbyID, "closed")
	}
	return nil
}

// SetReady flips a waiting member to ready (or back).
func (s *LobbyService) SetReady(ctx context.Context, lobbyID, userID int64, ready bool) error {
	lobby, err := s.lobbyStore.GetLobbyByID(ctx, lobbyID)
	if err != nil {
		return err
	}
	if lobby == nil {
		return fmt.Errorf("lobby %d not found", lobbyID)
	}
	if lobby.Status != "waiting" {
		return fmt.Errorf("lobby %d is not accepting ready changes", lobbyID)
	}

	status := "waiting"
	if ready {
		status = "ready"
	}
	return s.lobbyPlayerStore.UpdatePlayerStatus(ctx, lobbyID, userID, status)
}

// ReadyPlayers lists the members a new game would seat.
func (s *LobbyService) ReadyPlayers(ctx context.Context, lobbyID int64) ([]*models.LobbyPlayer, error) {
	players, err := s.lobbyPlayerStore.GetPlayersByLobbyID(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	var ready []*models.LobbyPlayer
	for _, p := range players {
		if p.Status == "ready" {
			ready = append(ready, p)
		}
	}
	return ready, nil
}

// CanStartGame requires a waiting lobby with at least two ready players.
func (s *LobbyService) CanStartGame(ctx context.Context, lobbyID int64) (bool, error) {
	lobby, err := s.lobbyStore.GetLobbyByID(ctx, lobbyID)
	if err != nil {
		return false, err
	}
	if lobby == nil || lobby.Status != "waiting" {
		return false, nil
	}

	ready, err := s.ReadyPlayers(ctx, lobbyID)
	if err != nil {
		return false, err
	}
	return len(ready) >= 2, nil
}

// MarkPlaying transitions the lobby and its ready members into a running game.
func (s *LobbyService) MarkPlaying(ctx context.Context, lobbyID int64) error {
	if err := s.lobbyPlayerStore.MarkAllPlaying(ctx, lobbyID); err != nil {
		return err
	}
	return s.lobbyStore.UpdateStatus(ctx, lobbyID, "playing")
}

// MarkClosed shuts the lobby once its game has finished.
func (s *LobbyService) MarkClosed(ctx context.Context, lobbyID int64) error {
	return s.lobbyStore.UpdateStatus(ctx, lobbyID, "closed")
}
