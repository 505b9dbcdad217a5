package engine

// TableEntry is one attack card, optionally paired with the card that
// defended it.
type TableEntry struct {
	Attack  Card  `json:"attack"`
	Defense *Card `json:"defense,omitempty"`
}

func (e TableEntry) IsDefended() bool {
	return e.Defense != nil
}

// Table is the attack-defense ledger for the current round.
type Table struct {
	entries []TableEntry
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	return len(t.entries)
}

func (t *Table) IsEmpty() bool {
	return len(t.entries) == 0
}

// Entries returns a copy of the current round's ledger.
func (t *Table) Entries() []TableEntry {
	out := make([]TableEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table) Entry(i int) (TableEntry, bool) {
	if i < 0 || i >= len(t.entries) {
		return TableEntry{}, false
	}
	return t.entries[i], true
}

// HasRank reports whether any attack or defense card on the table carries
// the given rank value. Follow-up attacks must match one of these.
func (t *Table) HasRank(value int) bool {
	for _, e := range t.entries {
		if e.Attack.Rank.Value == value {
			return true
		}
		if e.Defense != nil && e.Defense.Rank.Value == value {
			return true
		}
	}
	return false
}

// Attack appends a new undefended entry. The card must open the round or
// match a rank already on the table, and the table may never hold more
// attacks than the defender has cards to answer with.
func (t *Table) Attack(c Card, defenderHandSize int) error {
	if len(t.entries) >= defenderHandSize+t.defendedCount() {
		return invalidMove("defender cannot cover more than %d attacks", defenderHandSize+t.defendedCount())
	}
	if !t.IsEmpty() && !t.HasRank(c.Rank.Value) {
		return invalidMove("follow-up attack %s matches no rank on the table", c)
	}
	t.entries = append(t.entries, TableEntry{Attack: c})
	return nil
}

// Defend pairs the entry at index i with a beating card. Defending an
// already-defended entry is rejected, as is a card that does not beat the
// attack under the trump suit.
func (t *Table) Defend(i int, c Card, trump Suit) error {
	if i < 0 || i >= len(t.entries) {
		return invalidMove("no attack entry at index %d", i)
	}
	e := &t.entries[i]
	if e.IsDefended() {
		return invalidMove("attack %s is already defended", e.Attack)
	}
	if !Beats(c, e.Attack, trump) {
		return invalidMove("%s does not beat %s", c, e.Attack)
	}
	e.Defense = &c
	return nil
}

// AllDefended reports whether every attack on the table has been answered.
func (t *Table) AllDefended() bool {
	for _, e := range t.entries {
		if !e.IsDefended() {
			return false
		}
	}
	return true
}

func (t *Table) UndefendedCount() int {
	n := 0
	for _, e := range t.entries {
		if !e.IsDefended() {
			n++
		}
	}
	return n
}

func (t *Table) defendedCount() int {
	return len(t.entries) - t.UndefendedCount()
}

// Clear removes and returns every card on the table, attacks and defenses
// alike, in placement order.
func (t *Table) Clear() []Card {
	cards := make([]Card, 0, len(t.entries)*2)
	for _, e := range t.entries {
		cards = append(cards, e.Attack)
		if e.Defense != nil {
			cards = append(cards, *e.Defense)
		}
	}
	t.entries = nil
	return cards
}
