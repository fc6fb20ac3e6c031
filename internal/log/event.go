package log

// EventType enumerates all observable match events.
type EventType int

const (
	EventNewTurn EventType = iota
	EventEndTurn
	EventDraw
	EventBurnCard // drawn into a full hand
	EventPlayCard
	EventCastSpell
	EventSummon
	EventAttackDeclare
	EventDirectAttack
	EventDamage
	EventHPChange
	EventHeal
	EventBuff
	EventShieldBreak
	EventAbsorb
	EventFreeze
	EventDestroy
	EventSendToGraveyard
	EventResurrect
	EventReturnToHand
	EventChangeControl
	EventSilence
	EventTransform
	EventDiscard
	EventExtraTurn
	EventChaos
	EventRewind
	EventTargetPending
	EventTargetCancelled
	EventRejected
	EventWin
	EventDraw_Tie
	EventShuffle
	EventReconcile
)

func (e EventType) String() string {
	switch e {
	case EventNewTurn:
		return "NewTurn"
	case EventEndTurn:
		return "EndTurn"
	case EventDraw:
		return "Draw"
	case EventBurnCard:
		return "BurnCard"
	case EventPlayCard:
		return "PlayCard"
	case EventCastSpell:
		return "CastSpell"
	case EventSummon:
		return "Summon"
	case EventAttackDeclare:
		return "AttackDeclare"
	case EventDirectAttack:
		return "DirectAttack"
	case EventDamage:
		return "Damage"
	case EventHPChange:
		return "HPChange"
	case EventHeal:
		return "Heal"
	case EventBuff:
		return "Buff"
	case EventShieldBreak:
		return "ShieldBreak"
	case EventAbsorb:
		return "Absorb"
	case EventFreeze:
		return "Freeze"
	case EventDestroy:
		return "Destroy"
	case EventSendToGraveyard:
		return "SendToGraveyard"
	case EventResurrect:
		return "Resurrect"
	case EventReturnToHand:
		return "ReturnToHand"
	case EventChangeControl:
		return "ChangeControl"
	case EventSilence:
		return "Silence"
	case EventTransform:
		return "Transform"
	case EventDiscard:
		return "Discard"
	case EventExtraTurn:
		return "ExtraTurn"
	case EventChaos:
		return "Chaos"
	case EventRewind:
		return "Rewind"
	case EventTargetPending:
		return "TargetPending"
	case EventTargetCancelled:
		return "TargetCancelled"
	case EventRejected:
		return "Rejected"
	case EventWin:
		return "Win"
	case EventDraw_Tie:
		return "Draw(tie)"
	case EventShuffle:
		return "Shuffle"
	case EventReconcile:
		return "Reconcile"
	default:
		return "Unknown"
	}
}

// ParseEventType is the inverse of String.
func ParseEventType(s string) (EventType, bool) {
	for t := EventNewTurn; t <= EventReconcile; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// GameEvent represents a single observable event in a match.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Turn    int       // which turn (1-based, total across both sides)
	Phase   string    // "Player Turn" or "Opponent Turn"
	Player  int       // acting side (0 or 1)
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Details string    // human-readable detail string
}
