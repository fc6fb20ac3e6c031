package term

import (
	"fmt"
	"strings"

	"github.com/peterkuimelis/cardclash/internal/game"
)

const rule = "═══════════════════════════════════"

func (r *REPL) renderState(st *game.MatchState) {
	you, opp := st.Player(r.Side), st.Player(r.Side.Other())

	r.printf("\n")
	r.printf("╔══════════════════════════════════════════════════════╗\n")
	r.printf("║  OPPONENT  HP: %d/%d  Mana: %d/%d  Hand: %d\n",
		opp.Health, opp.MaxHealth, opp.Mana, opp.MaxMana, len(opp.Hand))
	r.printf("║  Field: %s\n", formatField(opp.Field))
	r.printf("║  ────────────────────────────────────────────────────\n")
	r.printf("║  Field: %s\n", formatField(you.Field))
	r.printf("║  YOU       HP: %d/%d  Mana: %d/%d  Hand: %d\n",
		you.Health, you.MaxHealth, you.Mana, you.MaxMana, len(you.Hand))
	r.printf("╚══════════════════════════════════════════════════════╝\n")

	turnInfo := fmt.Sprintf("Turn %d", st.Turn)
	switch {
	case st.Turn == 0:
		turnInfo += " | Waiting for the match to start"
	case st.Current == r.Side:
		turnInfo += " | Your turn"
	default:
		turnInfo += " | Opponent's turn"
	}
	r.printf("%s\n", turnInfo)

	if len(you.Hand) > 0 {
		r.printf("\nHand:\n")
		for _, c := range you.Hand {
			r.printf("  #%-3d %s\n", c.ID, formatHandCard(c, you.EffectiveCost(c)))
		}
	}
	if p := st.Pending; p != nil && p.Side == r.Side {
		r.printf("\n%s is waiting for a target (target <face|me|id>, or cancel)\n", p.Card.Card.Name)
	}
}

func formatField(field []*game.CardInstance) string {
	if len(field) == 0 {
		return "(empty)"
	}
	parts := make([]string, 0, len(field))
	for _, c := range field {
		parts = append(parts, formatCreature(c))
	}
	return strings.Join(parts, " ")
}

func formatCreature(c *game.CardInstance) string {
	var tags []string
	if c.Taunt {
		tags = append(tags, "T")
	}
	if c.DivineShield {
		tags = append(tags, "DS")
	}
	if c.Stealth {
		tags = append(tags, "S")
	}
	if c.Frozen {
		tags = append(tags, "FRZ")
	}
	if c.Tapped {
		tags = append(tags, "zz")
	}
	s := fmt.Sprintf("[#%d %s %d/%d", c.ID, c.Card.Name, c.Attack, c.Health)
	if len(tags) > 0 {
		s += " " + strings.Join(tags, ",")
	}
	return s + "]"
}

func formatHandCard(c *game.CardInstance, cost int) string {
	s := fmt.Sprintf("(%d) %s", cost, c.Card.Name)
	if c.Card.Kind == game.KindCreature {
		s += fmt.Sprintf(" %d/%d", c.Attack, c.Health)
	}
	if c.Ability.Text != "" {
		s += " - " + c.Ability.Text
	}
	return s
}

func (r *REPL) renderGameOver(st *game.MatchState) {
	r.printf("\n%s\n", rule)
	r.printf("          GAME OVER\n")
	r.printf("%s\n", rule)
	switch st.Winner {
	case r.Side:
		r.printf("You win. %s\n", st.Result)
	case game.SideNone:
		r.printf("Draw. %s\n", st.Result)
	default:
		r.printf("You lose. %s\n", st.Result)
	}
	r.printf("%s\n", rule)
}
