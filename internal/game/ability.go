package game

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Keyword is a bit set of passive/combat keywords carried by an ability.
type Keyword uint32

const (
	KeywordTaunt Keyword = 1 << iota
	KeywordStealth
	KeywordFlying
	KeywordReach
	KeywordLifesteal
	KeywordDivineShield
	KeywordFirstStrike
	KeywordPoison
	KeywordTrample
	KeywordWindfury
	KeywordVigilance
	KeywordSpellShield
	KeywordEnrage
	KeywordRush
	KeywordCharge
	KeywordImmune
	KeywordUnblockable
	KeywordFreezeOnHit
	KeywordInstantKill
	KeywordBurn
	KeywordSpellPower
	KeywordDoubleSpellDamage
	KeywordReborn
)

var keywordNames = []struct {
	kw   Keyword
	name string
}{
	{KeywordTaunt, "Taunt"},
	{KeywordStealth, "Stealth"},
	{KeywordFlying, "Flying"},
	{KeywordReach, "Reach"},
	{KeywordLifesteal, "Lifesteal"},
	{KeywordDivineShield, "Divine Shield"},
	{KeywordFirstStrike, "First Strike"},
	{KeywordPoison, "Poison"},
	{KeywordTrample, "Trample"},
	{KeywordWindfury, "Windfury"},
	{KeywordVigilance, "Vigilance"},
	{KeywordSpellShield, "Spell Shield"},
	{KeywordEnrage, "Enrage"},
	{KeywordRush, "Rush"},
	{KeywordCharge, "Charge"},
	{KeywordImmune, "Immune"},
	{KeywordUnblockable, "Cannot be blocked"},
	{KeywordFreezeOnHit, "Freeze enemy"},
	{KeywordInstantKill, "Instant kill"},
	{KeywordBurn, "Burn"},
	{KeywordSpellPower, "Spell Power +1"},
	{KeywordDoubleSpellDamage, "Double spell damage"},
	{KeywordReborn, "Reborn"},
}

// keywordClauses maps every accepted clause spelling to its keyword.
var keywordClauses = map[string]Keyword{
	"taunt":               KeywordTaunt,
	"stealth":             KeywordStealth,
	"flying":              KeywordFlying,
	"reach":               KeywordReach,
	"lifesteal":           KeywordLifesteal,
	"lifelink":            KeywordLifesteal,
	"divine shield":       KeywordDivineShield,
	"first strike":        KeywordFirstStrike,
	"poison":              KeywordPoison,
	"poisonous":           KeywordPoison,
	"deathtouch":          KeywordPoison,
	"trample":             KeywordTrample,
	"windfury":            KeywordWindfury,
	"vigilance":           KeywordVigilance,
	"spell shield":        KeywordSpellShield,
	"enrage":              KeywordEnrage,
	"rush":                KeywordRush,
	"charge":              KeywordCharge,
	"quick":               KeywordCharge,
	"immune":              KeywordImmune,
	"cannot be blocked":   KeywordUnblockable,
	"can't be blocked":    KeywordUnblockable,
	"freeze enemy":        KeywordFreezeOnHit,
	"instant kill":        KeywordInstantKill,
	"burn":                KeywordBurn,
	"splash":              KeywordBurn,
	"spell power":         KeywordSpellPower,
	"spell power +1":      KeywordSpellPower,
	"double spell damage": KeywordDoubleSpellDamage,
	"reborn":              KeywordReborn,
	"resurrect on death":  KeywordReborn,
}

// Has reports whether every keyword in k2 is present in k.
func (k Keyword) Has(k2 Keyword) bool {
	return k&k2 == k2 && k2 != 0
}

// Names returns the display names of the keywords in k, in table order.
func (k Keyword) Names() []string {
	var names []string
	for _, kn := range keywordNames {
		if k&kn.kw != 0 {
			names = append(names, kn.name)
		}
	}
	return names
}

func (k Keyword) String() string {
	return strings.Join(k.Names(), ", ")
}

// EffectKind is the closed set of effect families an ability can resolve to.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectDamage
	EffectDamageAll
	EffectHeal
	EffectBuffAll
	EffectBuffTarget
	EffectDraw
	EffectSummon
	EffectDestroyAll
	EffectDestroyTarget
	EffectDiscardHand
	EffectFullHealField
	EffectResurrect
	EffectReturnToHand
	EffectSteal
	EffectSilence
	EffectExtraTurn
	EffectChaos
	EffectFreezeTarget
	EffectTransform
	EffectCopy
	EffectRewind
	EffectGrantImmune
)

func (e EffectKind) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectDamage:
		return "damage"
	case EffectDamageAll:
		return "damage-all"
	case EffectHeal:
		return "heal"
	case EffectBuffAll:
		return "buff-all"
	case EffectBuffTarget:
		return "buff-target"
	case EffectDraw:
		return "draw"
	case EffectSummon:
		return "summon"
	case EffectDestroyAll:
		return "destroy-all"
	case EffectDestroyTarget:
		return "destroy-target"
	case EffectDiscardHand:
		return "discard-hand"
	case EffectFullHealField:
		return "full-heal-field"
	case EffectResurrect:
		return "resurrect"
	case EffectReturnToHand:
		return "return-to-hand"
	case EffectSteal:
		return "steal"
	case EffectSilence:
		return "silence"
	case EffectExtraTurn:
		return "extra-turn"
	case EffectChaos:
		return "chaos"
	case EffectFreezeTarget:
		return "freeze-target"
	case EffectTransform:
		return "transform"
	case EffectCopy:
		return "copy"
	case EffectRewind:
		return "rewind"
	case EffectGrantImmune:
		return "grant-immune"
	default:
		return "unknown"
	}
}

// Scope narrows which creatures/players an untargeted effect touches.
type Scope int

const (
	ScopeTarget Scope = iota
	ScopeSelf
	ScopeEnemyPlayer
	ScopeEnemyCreatures
	ScopeEnemies // enemy creatures and the enemy player
	ScopeAllCreatures
	ScopeFriendlyCreatures
)

// Ability is the compiled form of a card's ability text.
type Ability struct {
	Text     string
	Keywords Keyword

	Effect        EffectKind
	Scope         Scope
	Amount        int    // damage, heal, draw, or resurrect count
	Attack        int    // buff amount or token attack
	Health        int    // buff amount or token health
	Count         int    // tokens to summon
	Token         string // token name for summon/transform
	Freeze        bool   // damage also freezes a surviving target
	CostReduction int    // "Your spells cost N less" aura

	Deathrattle *Ability
}

// Has reports whether the ability carries the given keyword.
func (a Ability) Has(k Keyword) bool {
	return a.Keywords.Has(k)
}

// IsZero reports whether the ability does nothing at all.
func (a Ability) IsZero() bool {
	return a.Keywords == 0 && a.Effect == EffectNone && a.CostReduction == 0 && a.Deathrattle == nil
}

// TargetClass returns the class of target the ability's effect needs.
func (a Ability) TargetClass() TargetClass {
	switch a.Effect {
	case EffectDamage:
		if a.Scope == ScopeTarget {
			return TargetAnyEnemy
		}
	case EffectBuffTarget:
		return TargetFriendlyCreature
	case EffectDestroyTarget, EffectSteal, EffectFreezeTarget:
		return TargetEnemyCreature
	case EffectReturnToHand, EffectSilence, EffectTransform, EffectCopy:
		return TargetAnyCreature
	}
	return TargetNone
}

// NeedsTarget reports whether resolving the effect requires a chosen target.
func (a Ability) NeedsTarget() bool {
	return a.TargetClass() != TargetNone
}

// IsRemoval reports whether the effect takes an enemy creature off the board.
func (a Ability) IsRemoval() bool {
	switch a.Effect {
	case EffectDestroyTarget, EffectDestroyAll, EffectSteal, EffectReturnToHand, EffectTransform:
		return true
	}
	return false
}

// --- Compilation ---

type effectRule struct {
	re    *regexp.Regexp
	build func(m []string) Ability
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7,
}

func parseCount(s string) int {
	if n, ok := numberWords[strings.ToLower(s)]; ok {
		return n
	}
	n, _ := strconv.Atoi(s)
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// effectRules is the exhaustive mapping from clause text to effect. Order
// matters: more specific patterns come first.
var effectRules = []effectRule{
	{regexp.MustCompile(`^deal (\d+) damage and freeze$`), func(m []string) Ability {
		return Ability{Effect: EffectDamage, Scope: ScopeTarget, Amount: atoi(m[1]), Freeze: true}
	}},
	{regexp.MustCompile(`^deal (\d+) damage to (?:the )?enemy (?:player|hero)$`), func(m []string) Ability {
		return Ability{Effect: EffectDamage, Scope: ScopeEnemyPlayer, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^deal (\d+) damage to all enemy creatures$`), func(m []string) Ability {
		return Ability{Effect: EffectDamageAll, Scope: ScopeEnemyCreatures, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^deal (\d+) damage to all enemies$`), func(m []string) Ability {
		return Ability{Effect: EffectDamageAll, Scope: ScopeEnemies, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^deal (\d+) damage to all creatures$`), func(m []string) Ability {
		return Ability{Effect: EffectDamageAll, Scope: ScopeAllCreatures, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^deal (\d+) damage$`), func(m []string) Ability {
		return Ability{Effect: EffectDamage, Scope: ScopeTarget, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^(?:heal|restore) (\d+)(?: health)?$`), func(m []string) Ability {
		return Ability{Effect: EffectHeal, Scope: ScopeSelf, Amount: atoi(m[1])}
	}},
	{regexp.MustCompile(`^\+(\d+)/\+(\d+) to all allies$`), func(m []string) Ability {
		return Ability{Effect: EffectBuffAll, Scope: ScopeFriendlyCreatures, Attack: atoi(m[1]), Health: atoi(m[2])}
	}},
	{regexp.MustCompile(`^give a friendly creature \+(\d+)/\+(\d+)$`), func(m []string) Ability {
		return Ability{Effect: EffectBuffTarget, Scope: ScopeTarget, Attack: atoi(m[1]), Health: atoi(m[2])}
	}},
	{regexp.MustCompile(`^draw (\d+|a|an|one|two|three) cards?$`), func(m []string) Ability {
		return Ability{Effect: EffectDraw, Scope: ScopeSelf, Amount: parseCount(m[1])}
	}},
	{regexp.MustCompile(`^summon (\d+|a|an|one|two|three|four|five|six|seven) (\d+)/(\d+) (.+)$`), func(m []string) Ability {
		return Ability{Effect: EffectSummon, Scope: ScopeSelf, Count: parseCount(m[1]),
			Attack: atoi(m[2]), Health: atoi(m[3]), Token: titleToken(m[4])}
	}},
	{regexp.MustCompile(`^destroy all creatures$`), func(m []string) Ability {
		return Ability{Effect: EffectDestroyAll, Scope: ScopeAllCreatures}
	}},
	{regexp.MustCompile(`^destroy all enemy creatures$`), func(m []string) Ability {
		return Ability{Effect: EffectDestroyAll, Scope: ScopeEnemyCreatures}
	}},
	{regexp.MustCompile(`^destroy (?:a|an enemy) creature$`), func(m []string) Ability {
		return Ability{Effect: EffectDestroyTarget, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^discard (?:your )?opponent'?s hand$`), func(m []string) Ability {
		return Ability{Effect: EffectDiscardHand, Scope: ScopeEnemyPlayer}
	}},
	{regexp.MustCompile(`^fully heal your (?:creatures|field)$`), func(m []string) Ability {
		return Ability{Effect: EffectFullHealField, Scope: ScopeFriendlyCreatures}
	}},
	{regexp.MustCompile(`^resurrect your graveyard$`), func(m []string) Ability {
		return Ability{Effect: EffectResurrect, Scope: ScopeSelf}
	}},
	{regexp.MustCompile(`^resurrect (\d+|a|one|two|three) creatures?$`), func(m []string) Ability {
		return Ability{Effect: EffectResurrect, Scope: ScopeSelf, Amount: parseCount(m[1])}
	}},
	{regexp.MustCompile(`^return a creature to (?:its owner'?s )?hand$`), func(m []string) Ability {
		return Ability{Effect: EffectReturnToHand, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^steal an enemy creature$`), func(m []string) Ability {
		return Ability{Effect: EffectSteal, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^silence a creature$`), func(m []string) Ability {
		return Ability{Effect: EffectSilence, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^take an extra turn$`), func(m []string) Ability {
		return Ability{Effect: EffectExtraTurn, Scope: ScopeSelf}
	}},
	{regexp.MustCompile(`^chaos$`), func(m []string) Ability {
		return Ability{Effect: EffectChaos, Scope: ScopeSelf}
	}},
	{regexp.MustCompile(`^freeze an enemy creature$`), func(m []string) Ability {
		return Ability{Effect: EffectFreezeTarget, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^transform a creature into an? (\d+)/(\d+) (.+)$`), func(m []string) Ability {
		return Ability{Effect: EffectTransform, Scope: ScopeTarget, Attack: atoi(m[1]), Health: atoi(m[2]), Token: titleToken(m[3])}
	}},
	{regexp.MustCompile(`^copy a creature$`), func(m []string) Ability {
		return Ability{Effect: EffectCopy, Scope: ScopeTarget}
	}},
	{regexp.MustCompile(`^rewind(?: time)?$`), func(m []string) Ability {
		return Ability{Effect: EffectRewind, Scope: ScopeSelf}
	}},
	{regexp.MustCompile(`^your creatures are immune this turn$`), func(m []string) Ability {
		return Ability{Effect: EffectGrantImmune, Scope: ScopeFriendlyCreatures}
	}},
	{regexp.MustCompile(`^your spells cost (\d+) less$`), func(m []string) Ability {
		return Ability{CostReduction: atoi(m[1])}
	}},
}

func titleToken(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var clauseSplit = regexp.MustCompile(`[,;]|\.\s*`)

// ParseAbility compiles ability text into an Ability. Every clause must be a
// known keyword or effect; anything else is an error so that unknown text is
// caught at catalog load rather than mid-match.
func ParseAbility(text string) (Ability, error) {
	ab := Ability{Text: strings.TrimSpace(text)}
	if ab.Text == "" {
		return ab, nil
	}

	rest := ab.Text
	// A deathrattle swallows everything after its marker.
	if idx := strings.Index(strings.ToLower(rest), "deathrattle:"); idx >= 0 {
		inner, err := ParseAbility(rest[idx+len("deathrattle:"):])
		if err != nil {
			return Ability{}, fmt.Errorf("deathrattle: %w", err)
		}
		if inner.Effect == EffectNone {
			return Ability{}, fmt.Errorf("deathrattle %q has no effect", inner.Text)
		}
		ab.Deathrattle = &inner
		rest = rest[:idx]
	}

	for _, raw := range clauseSplit.Split(rest, -1) {
		clause := strings.ToLower(strings.TrimSpace(raw))
		if clause == "" {
			continue
		}
		if kw, ok := keywordClauses[clause]; ok {
			ab.Keywords |= kw
			continue
		}
		matched := false
		for _, rule := range effectRules {
			m := rule.re.FindStringSubmatch(clause)
			if m == nil {
				continue
			}
			eff := rule.build(m)
			if eff.CostReduction > 0 {
				ab.CostReduction += eff.CostReduction
			} else {
				if ab.Effect != EffectNone {
					return Ability{}, fmt.Errorf("ability %q has more than one effect", text)
				}
				ab.Effect = eff.Effect
				ab.Scope = eff.Scope
				ab.Amount = eff.Amount
				ab.Attack = eff.Attack
				ab.Health = eff.Health
				ab.Count = eff.Count
				ab.Token = eff.Token
				ab.Freeze = eff.Freeze
			}
			matched = true
			break
		}
		if !matched {
			return Ability{}, fmt.Errorf("unknown ability clause %q", strings.TrimSpace(raw))
		}
	}
	return ab, nil
}

// MustParseAbility is ParseAbility for static tables and tests.
func MustParseAbility(text string) Ability {
	ab, err := ParseAbility(text)
	if err != nil {
		panic(err)
	}
	return ab
}
