package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMove rejects an illegal action before any state mutation.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInsufficientCards fails game creation when the configured deck
	// cannot fill every hand.
	ErrInsufficientCards = errors.New("insufficient cards")

	// ErrStateConsistency means a card-conservation or counter invariant
	// broke. The game halts; it is never retried.
	ErrStateConsistency = errors.New("state consistency violation")

	// ErrGameHalted is returned for every action after a consistency
	// violation stopped the game.
	ErrGameHalted = errors.New("game halted")

	// ErrGameFinished rejects actions against a finished game.
	ErrGameFinished = errors.New("game already finished")
)

func invalidMove(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMove, fmt.Sprintf(format, args...))
}
