package game

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidTarget checks target against class from side's point of view. The
// error is a *RejectError.
func ValidTarget(ms *MatchState, class TargetClass, side Side, target Target) error {
	if target.IsPlayer() {
		if class == TargetAnyEnemy && target.Side == side.Other() {
			return nil
		}
		return reject(ErrInvalidTarget, fmt.Sprintf("needs %s, not a player", class))
	}
	if !target.IsCard() {
		return reject(ErrInvalidTarget, fmt.Sprintf("needs %s", class))
	}

	c, controller := ms.Locate(target.Card.ID)
	if c == nil {
		return reject(ErrInvalidTarget, fmt.Sprintf("%s is not on the field", target.Card.Card.Name))
	}
	var ok bool
	switch class {
	case TargetAnyEnemy, TargetEnemyCreature:
		ok = controller == side.Other()
	case TargetAnyCreature:
		ok = true
	case TargetFriendlyCreature:
		ok = controller == side
	}
	if !ok {
		return reject(ErrInvalidTarget, fmt.Sprintf("%s is not a valid target (needs %s)", c.Card.Name, class))
	}
	if c.Stealth && controller != side {
		return reject(ErrStealthed, fmt.Sprintf("%s is stealthed", c.Card.Name))
	}
	return nil
}

// ParseTargetRef resolves a textual target reference from side's point of
// view: "face"/"enemy" for the opposing player, "me"/"self" for side's own
// player, or a creature instance ID on either field.
func ParseTargetRef(ms *MatchState, side Side, ref string) (Target, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	switch ref {
	case "face", "enemy", "opponent", "hero":
		return PlayerTarget(side.Other()), nil
	case "me", "self":
		return PlayerTarget(side), nil
	}
	id, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return NoTarget, fmt.Errorf("bad target %q", ref)
	}
	c, controller := ms.Locate(id)
	if c == nil {
		return NoTarget, fmt.Errorf("no creature #%d on the field", id)
	}
	return CardTarget(c, controller), nil
}
