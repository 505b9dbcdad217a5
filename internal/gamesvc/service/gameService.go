package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/foolsarena/durak-services/internal/gamesvc/engine"
	"github.com/foolsarena/durak-services/internal/gamesvc/models"
	"github.com/foolsarena/durak-services/internal/gamesvc/store"
	log "github.com/sirupsen/logrus"
)

// ruleSets are the named special-card variants a lobby may pick.
var ruleSets = map[string]*engine.RuleSet{
	"crazy": {
		Name:       "crazy",
		MinPlayers: 2,
		Specials: []engine.SpecialCardSpec{
			{Suit: engine.Hearts, Rank: engine.RankJoker, Effect: engine.SpecialEffect{Kind: engine.EffectSkip, Description: "next attacker is skipped"}},
			{Suit: engine.Spades, Rank: engine.RankJoker, Effect: engine.SpecialEffect{Kind: engine.EffectDraw, Payload: "2", Description: "opponent draws two"}},
		},
	},
}

type GameService struct {
	gameStore       *store.GameStore
	gamePlayerStore *store.GamePlayerStore
	moveStore       *store.MoveStore
	archiveStore    *store.MoveArchiveStore
	lobbyService    *LobbyService

	// Emit fans committed engine events out. The broker wires this after
	// construction; events fire from session goroutines.
	Emit func(gameID string, lobbyID int64, ev engine.Event)

	sessions sync.Map // gameID -> *liveGame
}

type liveGame struct {
	session *engine.Session
	lobbyID int64
}

func NewGameService(gameStore *store.GameStore, gamePlayerStore *store.GamePlayerStore,
	moveStore *store.MoveStore, archiveStore *store.MoveArchiveStore, lobbyService *LobbyService) *GameService {
	return &GameService{
		gameStore:       gameStore,
		gamePlayerStore: gamePlayerStore,
		moveStore:       moveStore,
		archiveStore:    archiveStore,
		lobbyService:    lobbyService,
	}
}

func (s *GameService) GetGameByID(ctx context.Context, gameID string) (*models.Game, error) {
	return s.gameStore.GetGameByID(ctx, gameID)
}

func (s *GameService) GetGamePlayers(ctx context.Context, gameID string) ([]*models.GamePlayer, error) {
	return s.gamePlayerStore.GetPlayersByGameID(ctx, gameID)
}

func (s *GameService) GetActiveGameForUser(ctx context.Context, userID int64) (*models.GamePlayer, error) {
	return s.gamePlayerStore.GetActiveGameForUser(ctx, userID)
}

// CreateGame turns a lobby with enough ready players into a running game.
// Deck and deal validation happens before any row is written; a lobby whose
// settings cannot serve its players never leaves the waiting state.
func (s *GameService) CreateGame(ctx context.Context, lobbyID, actorUserID int64) (*models.Game, []*models.GamePlayer, error) {
	lobby, err := s.lobbyService.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, nil, err
	}
	if lobby == nil {
		return nil, nil, fmt.Errorf("lobby %d not found", lobbyID)
	}
	if lobby.OwnerID != actorUserID {
		return nil, nil, fmt.Errorf("only the lobby owner can start the game")
	}

	ok, err := s.lobbyService.CanStartGame(ctx, lobbyID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("lobby %d cannot start: needs 2+ ready players in waiting state", lobbyID)
	}

	ready, err := s.lobbyService.ReadyPlayers(ctx, lobbyID)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := configFromSettings(lobby.Settings)
	if err != nil {
		return nil, nil, err
	}

	// seat order is randomized here, once
	playerIDs := make([]int64, 0, len(ready))
	for _, p := range ready {
		playerIDs = append(playerIDs, p.UserID)
	}
	rand.Shuffle(len(playerIDs), func(i, j int) {
		playerIDs[i], playerIDs[j] = playerIDs[j], playerIDs[i]
	})

	g, err := engine.NewGame(playerIDs, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create game for lobby %d: %w", lobbyID, err)
	}
	gameID := g.ID.String()

	repo := &checkpointRepo{svc: s, lobbyID: lobbyID}
	emit := func(ev engine.Event) {
		if s.Emit != nil {
			s.Emit(gameID, lobbyID, ev)
		}
	}
	session := engine.NewSession(g, repo, emit, nil)

	// Start writes the creation checkpoint synchronously
	if err := session.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to persist new game: %w", err)
	}
	s.sessions.Store(gameID, &liveGame{session: session, lobbyID: lobbyID})

	if err := s.lobbyService.MarkPlaying(ctx, lobbyID); err != nil {
		log.Errorf("game %s started but lobby %d not marked playing: %v", gameID, lobbyID, err)
	}

	game, err := s.gameStore.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	players, err := s.gamePlayerStore.GetPlayersByGameID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	return game, players, nil
}

func configFromSettings(st models.LobbySettings) (engine.Config, error) {
	cfg := engine.Config{
		CardCount:         st.CardCount,
		AllowJokers:       st.AllowJokers,
		IsTransferable:    st.IsTransferable,
		NeighborThrowOnly: st.NeighborThrowOnly,
		TurnTimeLimit:     time.Duration(st.TurnTimeLimitSec) * time.Second,
	}
	if st.RuleSet != "" {
		rs, ok := ruleSets[st.RuleSet]
		if !ok {
			return engine.Config{}, fmt.Errorf("unknown rule set %q", st.RuleSet)
		}
		cfg.RuleSet = rs
	}
	return cfg, nil
}

// Act routes one player action to the game's session. Engine errors come back
// verbatim so the broker can distinguish invalid moves from hard failures.
func (s *GameService) Act(gameID string, action engine.Action) ([]engine.Event, error) {
	lg, ok := s.sessions.Load(gameID)
	if !ok {
		return nil, fmt.Errorf("game %s is not running on this instance", gameID)
	}
	return lg.(*liveGame).session.Do(action)
}

// PlayerView is the per-player read model for get-game-state.
type PlayerView struct {
	GameID     string
	Status     string
	Phase      engine.Phase
	TurnNo     int
	Trump      engine.Card
	DeckSize   int
	AttackerID int64
	DefenderID int64
	Table      []engine.TableEntry
	Seats      []engine.SeatSnapshot
	Hand       []engine.Card
}

// GameState reads a consistent view of the running game. The hand is filled
// only for seated players; spectators get public state.
func (s *GameService) GameState(gameID string, userID int64) (*PlayerView, error) {
	lg, ok := s.sessions.Load(gameID)
	if !ok {
		return nil, fmt.Errorf("game %s is not running on this instance", gameID)
	}

	view := &PlayerView{}
	err := lg.(*liveGame).session.View(func(g *engine.Game) {
		snap := g.Snapshot()
		view.GameID = snap.GameID
		view.Status = snap.Status
		view.Phase = g.Phase()
		view.TurnNo = g.TurnNo()
		view.Trump = g.Trump()
		view.DeckSize = g.DeckSize()
		view.AttackerID = g.AttackerID()
		view.DefenderID = g.DefenderID()
		view.Table = g.TableEntries()
		view.Seats = snap.Seats
		if hand, err := g.HandOf(userID); err == nil {
			view.Hand = hand
		}
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// checkpointRepo is the engine.Repository bound to one game: it maps
// snapshots onto the relational rows and, at finish, the mongo archive.
type checkpointRepo struct {
	svc     *GameService
	lobbyID int64
}

func (r *checkpointRepo) SaveCreated(ctx context.Context, snap engine.Snapshot) error {
	game := models.Game{
		ID:        snap.GameID,
		LobbyID:   r.lobbyID,
		TrumpSuit: snap.TrumpCard.Suit.Name,
		TrumpCard: snap.TrumpCard.String(),
		Status:    snap.Status,
		TurnNo:    snap.TurnNo,
		DeckSize:  snap.DeckSize,
		StartedAt: snap.StartedAt,
	}
	if _, err := r.svc.gameStore.CreateGame(ctx, game); err != nil {
		return err
	}

	players := make([]*models.GamePlayer, 0, len(snap.Seats))
	for _, seat := range snap.Seats {
		players = append(players, &models.GamePlayer{
			GameID:         snap.GameID,
			UserID:         seat.UserID,
			SeatPosition:   seat.Position,
			CardsRemaining: seat.CardsRemaining,
		})
	}
	return r.svc.gamePlayerStore.CreateSeats(ctx, players)
}

func (r *checkpointRepo) SaveRound(ctx context.Context, snap engine.Snapshot) error {
	if err := r.svc.gameStore.UpdateProgress(ctx, snap.GameID, snap.TurnNo, snap.DeckSize); err != nil {
		return err
	}
	for _, seat := range snap.Seats {
		status := seatStatus(seat, snap.LoserID)
		if err := r.svc.gamePlayerStore.UpdateSeat(ctx, snap.GameID, seat.UserID, seat.CardsRemaining, status); err != nil {
			return err
		}
	}
	return r.svc.moveStore.AppendMoves(ctx, movesFromSnapshot(snap))
}

func (r *checkpointRepo) SaveFinished(ctx context.Context, snap engine.Snapshot) error {
	if err := r.svc.moveStore.AppendMoves(ctx, movesFromSnapshot(snap)); err != nil {
		return err
	}
	for _, seat := range snap.Seats {
		status := seatStatus(seat, snap.LoserID)
		if err := r.svc.gamePlayerStore.UpdateSeat(ctx, snap.GameID, seat.UserID, seat.CardsRemaining, status); err != nil {
			return err
		}
	}
	if err := r.svc.gameStore.FinishGame(ctx, snap.GameID, snap.LoserID); err != nil {
		return err
	}

	if err := r.svc.archiveStore.Archive(ctx, r.lobbyID, snap); err != nil {
		// the relational record is complete; a failed archive is not fatal
		log.Errorf("game %s finished but archive failed: %v", snap.GameID, err)
	}
	if err := r.svc.lobbyService.MarkClosed(ctx, r.lobbyID); err != nil {
		log.Errorf("game %s finished but lobby %d not closed: %v", snap.GameID, r.lobbyID, err)
	}

	r.svc.retire(snap.GameID)
	return nil
}

// retire drops a finished game's session once its last checkpoint is written.
func (s *GameService) retire(gameID string) {
	if lg, ok := s.sessions.LoadAndDelete(gameID); ok {
		go lg.(*liveGame).session.Close()
	}
}

func seatStatus(seat engine.SeatSnapshot, loserID *int64) string {
	switch {
	case loserID != nil && *loserID == seat.UserID:
		return "durak"
	case seat.Left:
		return "left"
	case seat.Out:
		return "out"
	default:
		return "playing"
	}
}

func movesFromSnapshot(snap engine.Snapshot) []*models.Move {
	moves := make([]*models.Move, 0, len(snap.Moves))
	for i, rec := range snap.Moves {
		m := &models.Move{
			GameID:   snap.GameID,
			Seq:      i,
			TurnNo:   rec.TurnNo,
			UserID:   rec.UserID,
			Action:   string(rec.Action),
			PlayedAt: rec.At,
		}
		if rec.Card != nil {
			m.Card = sql.NullString{String: rec.Card.String(), Valid: true}
		}
		if rec.Target != nil {
			m.TargetCard = sql.NullString{String: rec.Target.String(), Valid: true}
		}
		moves = append(moves, m)
	}
	return moves
}
