package deck

// CardSet represents a set of single-deck cards using a bitset for fast operations.
// Each card maps to a bit: index = (rank-2)*4 + suit
type CardSet uint64

// Index converts a card to its bit index (0-51)
func Index(card Card) int {
	return int(card.Rank-Two)*NumSuits + int(card.Suit)
}

// Add adds a card to the set
func (cs *CardSet) Add(card Card) {
	*cs |= 1 << Index(card)
}

// Contains checks if a card is in the set
func (cs CardSet) Contains(card Card) bool {
	return cs&(1<<Index(card)) != 0
}

// NewCardSet creates a CardSet from slices of cards
func NewCardSet(groups ...[]Card) CardSet {
	var cs CardSet
	for _, cards := range groups {
		for _, card := range cards {
			cs.Add(card)
		}
	}
	return cs
}

// Remove removes a card from the set
func (cs *CardSet) Remove(card Card) {
	*cs &^= 1 << Index(card)
}
