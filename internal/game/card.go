package game

import "fmt"

// Card is an immutable catalog template. Identity is by Name.
type Card struct {
	Name           string   `yaml:"name" json:"name"`
	Cost           int      `yaml:"cost" json:"cost"`
	Kind           CardKind `yaml:"kind" json:"kind"`
	Attack         int      `yaml:"attack" json:"attack"`
	Health         int      `yaml:"health" json:"health"`
	AbilityText    string   `yaml:"ability" json:"ability"`
	Rarity         Rarity   `yaml:"rarity" json:"rarity"`
	Colors         []string `yaml:"colors" json:"colors,omitempty"`
	Emoji          string   `yaml:"emoji" json:"emoji,omitempty"`
	SplashFriendly bool     `yaml:"splash_friendly" json:"splashFriendly,omitempty"`
	FullArt        bool     `yaml:"full_art" json:"fullArt,omitempty"`
	Token          bool     `yaml:"-" json:"token,omitempty"`

	// Ability is compiled from AbilityText when the catalog loads.
	Ability Ability `yaml:"-" json:"-"`
}

// Compile parses the card's ability text into Ability.
func (c *Card) Compile() error {
	ab, err := ParseAbility(c.AbilityText)
	if err != nil {
		return fmt.Errorf("card %q: %w", c.Name, err)
	}
	c.Ability = ab
	return nil
}

// IsCreature reports whether the card is a creature.
func (c *Card) IsCreature() bool { return c.Kind == KindCreature }

// IsSpell reports whether the card is a spell.
func (c *Card) IsSpell() bool { return c.Kind == KindSpell }

// NewToken builds an uncollectible creature template for summon and
// transform effects.
func NewToken(name string, attack, health int) *Card {
	return &Card{
		Name:   name,
		Kind:   KindCreature,
		Attack: attack,
		Health: health,
		Token:  true,
	}
}

// Flags is the runtime flag record of a creature on a field.
type Flags struct {
	// Combat state, transmitted by the authority.
	Tapped              bool
	Frozen              bool
	JustPlayed          bool
	HasAttackedThisTurn bool

	// Passive state, derived from the ability.
	DivineShield bool
	SpellShield  bool
	Stealth      bool
	Taunt        bool
	Vigilance    bool
	InstantKill  bool

	TempImmune bool
	Enraged    bool
}

// DeriveFlags computes the passive flags implied by an ability. It is a pure
// function so that any client can re-derive them after reconstructing an
// instance.
func DeriveFlags(ab Ability) Flags {
	return Flags{
		DivineShield: ab.Has(KeywordDivineShield),
		SpellShield:  ab.Has(KeywordSpellShield),
		Stealth:      ab.Has(KeywordStealth),
		Taunt:        ab.Has(KeywordTaunt),
		Vigilance:    ab.Has(KeywordVigilance),
		InstantKill:  ab.Has(KeywordInstantKill),
	}
}

// CardInstance is a runtime card in a hand, deck, or field.
type CardInstance struct {
	Card  *Card
	ID    int
	Owner Side

	// Ability is the live ability; Silence zeroes it.
	Ability Ability

	BaseAttack int
	BaseHealth int
	Attack     int
	Health     int

	AttacksThisTurn int
	Flags
}

func newInstance(card *Card, id int, owner Side) *CardInstance {
	return &CardInstance{
		Card:       card,
		ID:         id,
		Owner:      owner,
		Ability:    card.Ability,
		BaseAttack: card.Attack,
		BaseHealth: card.Health,
		Attack:     card.Attack,
		Health:     card.Health,
	}
}

// Has reports whether the live ability carries the keyword.
func (ci *CardInstance) Has(k Keyword) bool {
	return ci.Ability.Has(k)
}

// IsImmune reports whether the creature ignores damage and destroy effects.
func (ci *CardInstance) IsImmune() bool {
	return ci.TempImmune || ci.Has(KeywordImmune)
}

// EnterField resets the instance's flags for a fresh arrival on a field.
func (ci *CardInstance) EnterField() {
	ci.Flags = DeriveFlags(ci.Ability)
	ci.JustPlayed = true
	ci.AttacksThisTurn = 0
}

// RederivePassives recomputes the passive flags from the live ability while
// keeping combat state.
func (ci *CardInstance) RederivePassives() {
	combat := ci.Flags
	ci.Flags = DeriveFlags(ci.Ability)
	ci.Tapped = combat.Tapped
	ci.Frozen = combat.Frozen
	ci.JustPlayed = combat.JustPlayed
	ci.HasAttackedThisTurn = combat.HasAttackedThisTurn
	ci.TempImmune = combat.TempImmune
	ci.Enraged = combat.Enraged
}

// MaxAttacks is the number of attacks the creature may make each turn.
func (ci *CardInstance) MaxAttacks() int {
	if ci.Has(KeywordWindfury) {
		return 2
	}
	return 1
}

// Silence strips every ability-derived property.
func (ci *CardInstance) Silence() {
	ci.Ability = Ability{}
	ci.DivineShield = false
	ci.SpellShield = false
	ci.Stealth = false
	ci.Taunt = false
	ci.Vigilance = false
	ci.InstantKill = false
}

func (ci *CardInstance) String() string {
	if ci.Card.IsSpell() {
		return fmt.Sprintf("%s (%d)", ci.Card.Name, ci.Card.Cost)
	}
	return fmt.Sprintf("%s (%d) %d/%d", ci.Card.Name, ci.Card.Cost, ci.Attack, ci.Health)
}

func (ci *CardInstance) clone() *CardInstance {
	cp := *ci
	if ci.Ability.Deathrattle != nil {
		dr := *ci.Ability.Deathrattle
		cp.Ability.Deathrattle = &dr
	}
	return &cp
}
