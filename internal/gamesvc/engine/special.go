package engine

// EffectKind tags the variant of a special card effect. The turn engine
// interprets skip, reverse and draw itself; custom effects dispatch to an
// injected handler.
type EffectKind string

const (
	EffectSkip    EffectKind = "skip"
	EffectReverse EffectKind = "reverse"
	EffectDraw    EffectKind = "draw"
	EffectCustom  EffectKind = "custom"
)

// SpecialEffect is declarative metadata attached to a card. Payload carries
// effect parameters (e.g. draw count, or an opaque value for custom effects).
type SpecialEffect struct {
	Kind        EffectKind `json:"kind"`
	Payload     string     `json:"payload,omitempty"`
	Description string     `json:"description,omitempty"`
}

// SpecialCardSpec declares one extra card a rule set adds to the deck.
type SpecialCardSpec struct {
	Suit   Suit          `json:"suit"`
	Rank   Rank          `json:"rank"`
	Effect SpecialEffect `json:"effect"`
}

// RuleSet is a named collection of enabled special cards plus the minimum
// player count the variant requires.
type RuleSet struct {
	Name       string            `json:"name"`
	MinPlayers int               `json:"min_players"`
	Specials   []SpecialCardSpec `json:"specials"`
}

// CustomEffectFunc is the extension hook for EffectCustom cards. It runs
// while the engine holds the game state, after the card has legally entered
// the table, and may mutate rotation through the passed game.
type CustomEffectFunc func(g *Game, card Card, actorSeat int) error
