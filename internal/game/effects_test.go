package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/cardclash/internal/log"
)

func TestSpellDamageWithSpellPower(t *testing.T) {
	tests := []struct {
		name  string
		field []string
		want  int
	}{
		{"no auras", nil, 28},
		{"one spell power", []string{"Spell Power +1"}, 27},
		{"two spell power", []string{"Spell Power +1", "Spell Power +1"}, 26},
		{"doubled", []string{"Spell Power +1", "Double spell damage"}, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(t)
			for i, ab := range tt.field {
				b.summon(SidePlayer, creature("Mage", 2, 1, 3+i, ab))
			}
			bolt := b.hand(SidePlayer, spell("Bolt", 1, "Deal 2 damage"))
			b.r.Resolve(b.ms, bolt.Ability, bolt, SidePlayer, PlayerTarget(SideOpponent))
			assert.Equal(t, tt.want, b.ms.Player(SideOpponent).Health)
		})
	}
}

func TestCreatureOnPlayDamageIgnoresSpellPower(t *testing.T) {
	b := newBoard(t)
	b.summon(SidePlayer, creature("Mage", 2, 1, 3, "Spell Power +1"))
	adept := b.summon(SidePlayer, creature("Adept", 3, 2, 2, "Deal 2 damage"))
	b.r.Resolve(b.ms, adept.Ability, adept, SidePlayer, PlayerTarget(SideOpponent))
	assert.Equal(t, 28, b.ms.Player(SideOpponent).Health)
}

func TestDamageAndFreeze(t *testing.T) {
	b := newBoard(t)
	target := b.summon(SideOpponent, vanillaCreature("Yeti", 4, 5))
	lance := b.hand(SidePlayer, spell("Lance", 2, "Deal 2 damage and Freeze"))
	b.r.Resolve(b.ms, lance.Ability, lance, SidePlayer, CardTarget(target, SideOpponent))
	assert.Equal(t, 3, target.Health)
	assert.True(t, target.Frozen)
}

func TestAreaDamageBatchesDeaths(t *testing.T) {
	b := newBoard(t)
	mine := b.summon(SidePlayer, vanillaCreature("Mine", 2, 2))
	theirs1 := b.summon(SideOpponent, vanillaCreature("Theirs 1", 1, 1))
	theirs2 := b.summon(SideOpponent, vanillaCreature("Theirs 2", 1, 5))
	paladin := b.summon(SideOpponent, creature("Paladin", 3, 2, 3, "Divine Shield"))

	wave := b.hand(SidePlayer, spell("Wave", 4, "Deal 2 damage to all enemy creatures"))
	b.r.Resolve(b.ms, wave.Ability, wave, SidePlayer, NoTarget)

	assert.Equal(t, 2, mine.Health)
	assert.Equal(t, 3, theirs2.Health)
	assert.Equal(t, 3, paladin.Health)
	assert.False(t, paladin.DivineShield)
	opp := b.ms.Player(SideOpponent)
	assert.Len(t, opp.Field, 2)
	assert.Nil(t, opp.FieldCard(theirs1.ID))
	require.Len(t, opp.Graveyard, 1)

	all := b.hand(SidePlayer, spell("Shock", 5, "Deal 3 damage to all enemies"))
	b.r.Resolve(b.ms, all.Ability, all, SidePlayer, NoTarget)
	assert.Equal(t, 27, opp.Health)
	assert.Len(t, opp.Field, 0)
}

func TestDestroyAllRespectsShields(t *testing.T) {
	b := newBoard(t)
	b.summon(SidePlayer, vanillaCreature("Mine", 2, 2))
	shielded := b.summon(SideOpponent, creature("Paladin", 3, 2, 3, "Divine Shield"))
	warden := b.summon(SideOpponent, creature("Warden", 8, 5, 5, "Immune"))
	b.summon(SideOpponent, vanillaCreature("Doomed", 3, 3))

	doom := b.hand(SidePlayer, spell("Doom", 8, "Destroy all creatures"))
	b.r.Resolve(b.ms, doom.Ability, doom, SidePlayer, NoTarget)

	assert.Empty(t, b.ms.Player(SidePlayer).Field)
	opp := b.ms.Player(SideOpponent)
	require.Len(t, opp.Field, 2)
	assert.Equal(t, shielded.ID, opp.Field[0].ID)
	assert.False(t, shielded.DivineShield)
	assert.Equal(t, warden.ID, opp.Field[1].ID)
}

func TestHealIsCapped(t *testing.T) {
	b := newBoard(t)
	p := b.ms.Player(SidePlayer)
	p.Health = 27
	heal := b.hand(SidePlayer, spell("Heal", 1, "Heal 5"))
	b.r.Resolve(b.ms, heal.Ability, heal, SidePlayer, NoTarget)
	assert.Equal(t, 30, p.Health)
}

func TestBuffsChangeBaseStats(t *testing.T) {
	b := newBoard(t)
	a := b.summon(SidePlayer, vanillaCreature("A", 1, 1))
	c := b.summon(SidePlayer, vanillaCreature("C", 2, 2))
	enemy := b.summon(SideOpponent, vanillaCreature("E", 2, 2))

	rally := b.hand(SidePlayer, spell("Rally", 3, "+1/+1 to all allies"))
	b.r.Resolve(b.ms, rally.Ability, rally, SidePlayer, NoTarget)
	assert.Equal(t, 2, a.Attack)
	assert.Equal(t, 2, a.BaseAttack)
	assert.Equal(t, 3, c.Health)
	assert.Equal(t, 3, c.BaseHealth)
	assert.Equal(t, 2, enemy.Attack)

	blessing := b.hand(SidePlayer, spell("Blessing", 1, "Give a friendly creature +2/+2"))
	b.r.Resolve(b.ms, blessing.Ability, blessing, SidePlayer, CardTarget(a, SidePlayer))
	assert.Equal(t, 4, a.Attack)
	assert.Equal(t, 4, a.BaseHealth)
}

func TestDrawBurnsIntoFullHand(t *testing.T) {
	b := newBoard(t)
	p := b.ms.Player(SidePlayer)
	for i := 0; i < HandLimit-1; i++ {
		b.hand(SidePlayer, vanillaCreature("Card", 1, 1))
	}
	for i := 0; i < 3; i++ {
		p.Deck = append(p.Deck, b.ms.NewInstance(vanillaCreature("Deck Card", 1, 1), SidePlayer))
	}

	insight := spell("Insight", 3, "Draw two cards")
	b.r.Resolve(b.ms, insight.Ability, nil, SidePlayer, NoTarget)
	assert.Len(t, p.Hand, HandLimit)
	assert.Len(t, p.Deck, 1)
	assert.Len(t, b.logger.EventsOfType(log.EventBurnCard), 1)

	p.Deck = nil
	b.r.Resolve(b.ms, insight.Ability, nil, SidePlayer, NoTarget)
	assert.Len(t, p.Hand, HandLimit)
}

func TestSummonCappedByField(t *testing.T) {
	b := newBoard(t)
	for i := 0; i < FieldLimit-2; i++ {
		b.summon(SidePlayer, vanillaCreature("Body", 1, 1))
	}
	pack := spell("Pack", 4, "Summon three 1/1 Wolf Pup")
	b.r.Resolve(b.ms, pack.Ability, nil, SidePlayer, NoTarget)

	field := b.ms.Player(SidePlayer).Field
	require.Len(t, field, FieldLimit)
	pup := field[len(field)-1]
	assert.Equal(t, "Wolf Pup", pup.Card.Name)
	assert.True(t, pup.Card.Token)
	assert.True(t, pup.JustPlayed)
}

func TestDiscardAndFullHeal(t *testing.T) {
	b := newBoard(t)
	b.hand(SideOpponent, vanillaCreature("X", 1, 1))
	b.hand(SideOpponent, vanillaCreature("Y", 1, 1))
	rot := spell("Rot", 5, "Discard opponent's hand")
	b.r.Resolve(b.ms, rot.Ability, nil, SidePlayer, NoTarget)
	assert.Empty(t, b.ms.Player(SideOpponent).Hand)
	assert.Len(t, b.logger.EventsOfType(log.EventDiscard), 2)

	hurt := b.summon(SidePlayer, vanillaCreature("Hurt", 2, 6))
	hurt.Health = 1
	renew := spell("Renew", 3, "Fully heal your creatures")
	b.r.Resolve(b.ms, renew.Ability, nil, SidePlayer, NoTarget)
	assert.Equal(t, 6, hurt.Health)
}

func TestResurrectRestoresRecordedStats(t *testing.T) {
	b := newBoard(t)
	fallen := b.summon(SidePlayer, vanillaCreature("Fallen", 2, 2))
	b.r.buff(b.ms, fallen, 3, 3)
	b.r.destroy(b.ms, fallen, "test")
	b.r.ProcessDeaths(b.ms)
	b.summon(SidePlayer, vanillaCreature("Other", 1, 1))
	b.r.destroy(b.ms, b.ms.Player(SidePlayer).Field[0], "test")
	b.r.ProcessDeaths(b.ms)
	require.Len(t, b.ms.Player(SidePlayer).Graveyard, 2)

	raise := spell("Raise", 4, "Resurrect one creature")
	b.r.Resolve(b.ms, raise.Ability, nil, SidePlayer, NoTarget)
	field := b.ms.Player(SidePlayer).Field
	require.Len(t, field, 1)
	assert.Equal(t, "Other", field[0].Card.Name)

	necro := spell("Necro", 8, "Resurrect your graveyard")
	b.r.Resolve(b.ms, necro.Ability, nil, SidePlayer, NoTarget)
	field = b.ms.Player(SidePlayer).Field
	require.Len(t, field, 2)
	assert.Equal(t, "Fallen", field[1].Card.Name)
	assert.Equal(t, 5, field[1].Attack)
	assert.Equal(t, 5, field[1].Health)
	assert.Empty(t, b.ms.Player(SidePlayer).Graveyard)
}

func TestReturnToHand(t *testing.T) {
	b := newBoard(t)
	target := b.summon(SideOpponent, vanillaCreature("Bouncy", 3, 3))
	target.Health = 1
	banish := spell("Banish", 2, "Return a creature to hand")
	b.r.Resolve(b.ms, banish.Ability, nil, SidePlayer, CardTarget(target, SideOpponent))

	opp := b.ms.Player(SideOpponent)
	assert.Empty(t, opp.Field)
	require.Len(t, opp.Hand, 1)
	assert.Equal(t, 3, opp.Hand[0].Health)

	// With a full hand the creature is destroyed instead.
	for len(opp.Hand) < HandLimit {
		b.hand(SideOpponent, vanillaCreature("Card", 1, 1))
	}
	again := b.summon(SideOpponent, vanillaCreature("Bouncy", 3, 3))
	b.r.Resolve(b.ms, banish.Ability, nil, SidePlayer, CardTarget(again, SideOpponent))
	assert.Empty(t, opp.Field)
	assert.Len(t, opp.Hand, HandLimit)
	assert.Len(t, opp.Graveyard, 1)
}

func TestStealMovesControl(t *testing.T) {
	b := newBoard(t)
	victim := b.tapped(SideOpponent, creature("Prize", 5, 4, 4, "Taunt"))
	victim.Health = 2
	mc := spell("MC", 9, "Steal an enemy creature")
	b.r.Resolve(b.ms, mc.Ability, nil, SidePlayer, CardTarget(victim, SideOpponent))

	assert.Empty(t, b.ms.Player(SideOpponent).Field)
	stolen := b.ms.Player(SidePlayer).FieldCard(victim.ID)
	require.NotNil(t, stolen)
	assert.Equal(t, SidePlayer, b.ms.Controller(stolen))
	assert.Equal(t, 2, stolen.Health)
	assert.True(t, stolen.JustPlayed)
	assert.True(t, stolen.Taunt)
	assert.False(t, stolen.Tapped)
}

func TestSilenceClearsAbility(t *testing.T) {
	b := newBoard(t)
	target := b.summon(SideOpponent, creature("Guard", 3, 2, 3, "Taunt, Divine Shield, Deathrattle: Deal 2 damage"))
	hush := spell("Hush", 1, "Silence a creature")
	b.r.Resolve(b.ms, hush.Ability, nil, SidePlayer, CardTarget(target, SideOpponent))

	assert.True(t, target.Ability.IsZero())
	assert.False(t, target.Taunt)
	assert.False(t, target.DivineShield)

	b.r.destroy(b.ms, target, "test")
	b.r.ProcessDeaths(b.ms)
	assert.Equal(t, 30, b.ms.Player(SidePlayer).Health)
}

func TestFreezeTransformCopy(t *testing.T) {
	b := newBoard(t)
	target := b.tapped(SideOpponent, creature("Dragon", 8, 8, 8, "Flying"))

	nova := spell("Nova", 2, "Freeze an enemy creature")
	b.r.Resolve(b.ms, nova.Ability, nil, SidePlayer, CardTarget(target, SideOpponent))
	assert.True(t, target.Frozen)

	mirror := spell("Mirror", 4, "Copy a creature")
	b.r.Resolve(b.ms, mirror.Ability, nil, SidePlayer, CardTarget(target, SideOpponent))
	mine := b.ms.Player(SidePlayer).Field
	require.Len(t, mine, 1)
	assert.Equal(t, "Dragon", mine[0].Card.Name)
	assert.Equal(t, SidePlayer, mine[0].Owner)
	assert.NotEqual(t, target.ID, mine[0].ID)

	poly := spell("Poly", 4, "Transform a creature into a 1/1 Sheep")
	b.r.Resolve(b.ms, poly.Ability, nil, SidePlayer, CardTarget(target, SideOpponent))
	theirs := b.ms.Player(SideOpponent).Field
	require.Len(t, theirs, 1)
	assert.Equal(t, "Sheep", theirs[0].Card.Name)
	assert.Equal(t, 1, theirs[0].Attack)
	assert.False(t, theirs[0].Has(KeywordFlying))
	assert.True(t, theirs[0].Frozen)
}

func TestExtraTurnAndImmunity(t *testing.T) {
	b := newBoard(t)
	warp := spell("Warp", 9, "Take an extra turn")
	b.r.Resolve(b.ms, warp.Ability, nil, SidePlayer, NoTarget)
	assert.True(t, b.ms.ExtraTurn[SidePlayer])

	mine := b.summon(SidePlayer, vanillaCreature("Mine", 2, 2))
	sanctuary := spell("Sanctuary", 2, "Your creatures are immune this turn")
	b.r.Resolve(b.ms, sanctuary.Ability, nil, SidePlayer, NoTarget)
	assert.True(t, mine.TempImmune)

	bolt := spell("Bolt", 1, "Deal 5 damage")
	b.r.Resolve(b.ms, bolt.Ability, nil, SideOpponent, CardTarget(mine, SidePlayer))
	assert.Equal(t, 2, mine.Health)
}

func TestUnknownEffectIsNoOp(t *testing.T) {
	b := newBoard(t)
	before := b.ms.Clone()
	b.r.Resolve(b.ms, MustParseAbility("Taunt"), nil, SidePlayer, NoTarget)
	b.r.Resolve(b.ms, Ability{Effect: EffectKind(999)}, nil, SidePlayer, NoTarget)
	assert.Equal(t, before.Players[0].Health, b.ms.Players[0].Health)
	assert.Equal(t, before.Players[1].Health, b.ms.Players[1].Health)
	assert.False(t, b.ms.Over)
}

func TestChaosExactlyThreeRule(t *testing.T) {
	tests := []struct {
		name       string
		pick       int64
		casterHP   int
		opponentHP int
		over       bool
		winner     Side
	}{
		{"damage leaves enemy at 3", 0, 2, 6, true, SideOpponent},
		{"damage leaves enemy at 2", 0, 10, 5, false, SideNone},
		{"damage leaves enemy at 4", 0, 10, 7, false, SideNone},
		{"heal leaves caster at 4", 1, 1, 10, false, SideNone},
		{"swap puts caster at 3", 4, 20, 3, true, SidePlayer},
		{"caster checked first", 4, 3, 3, true, SidePlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBoard(t)
			b.r.Rand = rand.New(fixedSource{tt.pick})
			b.ms.Player(SidePlayer).Health = tt.casterHP
			b.ms.Player(SideOpponent).Health = tt.opponentHP

			chaos := spell("Wild Magic", 3, "Chaos")
			b.r.Resolve(b.ms, chaos.Ability, nil, SidePlayer, NoTarget)
			assert.Equal(t, tt.over, b.ms.Over)
			assert.Equal(t, tt.winner, b.ms.Winner)
		})
	}
}

func TestChaosDrawAndAreaOutcomes(t *testing.T) {
	b := newBoard(t)
	b.r.Rand = rand.New(fixedSource{2})
	for _, s := range []Side{SidePlayer, SideOpponent} {
		p := b.ms.Player(s)
		p.Deck = append(p.Deck, b.ms.NewInstance(vanillaCreature("Top", 1, 1), s))
	}
	chaos := spell("Wild Magic", 3, "Chaos")
	b.r.Resolve(b.ms, chaos.Ability, nil, SidePlayer, NoTarget)
	assert.Len(t, b.ms.Player(SidePlayer).Hand, 1)
	assert.Len(t, b.ms.Player(SideOpponent).Hand, 1)

	b2 := newBoard(t)
	b2.r.Rand = rand.New(fixedSource{3})
	survivor := b2.summon(SidePlayer, vanillaCreature("Big", 3, 5))
	b2.summon(SideOpponent, vanillaCreature("Small", 1, 2))
	b2.r.Resolve(b2.ms, chaos.Ability, nil, SidePlayer, NoTarget)
	assert.Equal(t, 3, survivor.Health)
	assert.Empty(t, b2.ms.Player(SideOpponent).Field)
}

func TestRewindRestoresSnapshot(t *testing.T) {
	b := newBoard(t)
	keeper := b.summon(SidePlayer, vanillaCreature("Keeper", 2, 4))
	rewind := b.hand(SidePlayer, spell("Rewind", 6, "Rewind time"))
	b.ms.takeSnapshot()
	id := b.ms.ID

	keeper.Health = 1
	b.ms.Player(SideOpponent).Health = 12
	b.summon(SideOpponent, vanillaCreature("Late", 3, 3))

	b.r.Resolve(b.ms, rewind.Ability, rewind, SidePlayer, NoTarget)
	assert.Equal(t, id, b.ms.ID)
	assert.Equal(t, 30, b.ms.Player(SideOpponent).Health)
	assert.Empty(t, b.ms.Player(SideOpponent).Field)
	assert.Empty(t, b.ms.Player(SidePlayer).Hand)
	restored := b.ms.Player(SidePlayer).FieldCard(keeper.ID)
	require.NotNil(t, restored)
	assert.Equal(t, 4, restored.Health)

	// The live state and the snapshot never share instances.
	restored.Health = 99
	assert.Equal(t, 4, b.ms.Snapshot.Player(SidePlayer).FieldCard(keeper.ID).Health)

	// IDs keep increasing past anything issued before the rewind.
	fresh := b.ms.NewInstance(vanillaCreature("New", 1, 1), SidePlayer)
	assert.Greater(t, fresh.ID, rewind.ID+1)
}

func TestCloneDoesNotAlias(t *testing.T) {
	b := newBoard(t)
	c := b.summon(SidePlayer, creature("Knight", 3, 3, 3, "Divine Shield, Deathrattle: Deal 1 damage"))
	b.hand(SidePlayer, vanillaCreature("Held", 1, 1))
	b.ms.takeSnapshot()
	cp := b.ms.Clone()

	c.Health = 1
	c.DivineShield = false
	b.ms.Player(SidePlayer).Hand[0].Attack = 9
	b.ms.Player(SidePlayer).Graveyard = append(b.ms.Player(SidePlayer).Graveyard, GraveRecord{Card: c.Card})

	copied := cp.Player(SidePlayer).FieldCard(c.ID)
	require.NotNil(t, copied)
	assert.NotSame(t, c, copied)
	assert.Equal(t, 3, copied.Health)
	assert.True(t, copied.DivineShield)
	assert.NotSame(t, c.Ability.Deathrattle, copied.Ability.Deathrattle)
	assert.Equal(t, 1, cp.Player(SidePlayer).Hand[0].Attack)
	assert.Empty(t, cp.Player(SidePlayer).Graveyard)
	assert.NotSame(t, b.ms.Snapshot, cp.Snapshot)
	assert.Same(t, c.Card, copied.Card)
}
