package state

import (
	"fmt"

	"github.com/jwebster45206/gamebook-engine/pkg/dice"
)

// Attack strength is 2d6 plus skill; the lower side loses the round.
const roundDamage = 2

// CombatRound is the resolved outcome of one attack round.
type CombatRound struct {
	PlayerRoll   dice.Roll `json:"player_roll"`
	EnemyRoll    dice.Roll `json:"enemy_roll"`
	PlayerAttack int       `json:"player_attack"`
	EnemyAttack  int       `json:"enemy_attack"`
	Outcome      string    `json:"outcome"` // "player_hit", "enemy_hit", "clash"
	Damage       int       `json:"damage"`
}

// ResolveCombatRound plays one opposed attack round and returns the
// outcome plus the mutations to apply. Equal attack strengths clash
// with no damage. The caller decides when combat ends (enemy stamina
// reaching zero) via the terminal and validator layers.
func ResolveCombatRound(gs *GameState, roller *dice.Roller) (CombatRound, []Mutation, error) {
	if !gs.InCombat || gs.Enemy == nil {
		return CombatRound{}, nil, fmt.Errorf("not in combat")
	}

	playerRoll, _ := roller.RollNotation("2d6")
	enemyRoll, _ := roller.RollNotation("2d6")

	round := CombatRound{
		PlayerRoll:   playerRoll,
		EnemyRoll:    enemyRoll,
		PlayerAttack: playerRoll.Total + gs.Stats.Skill,
		EnemyAttack:  enemyRoll.Total + gs.Enemy.Skill,
	}

	var muts []Mutation
	switch {
	case round.PlayerAttack > round.EnemyAttack:
		round.Outcome = "player_hit"
		round.Damage = roundDamage
		muts = append(muts, Mutation{
			Kind:        MutationStatDelta,
			Stat:        StatStamina,
			Delta:       -roundDamage,
			EnemyTarget: true,
		})
		if gs.Enemy.Stamina-roundDamage <= 0 {
			muts = append(muts, Mutation{Kind: MutationEndCombat})
		}
	case round.EnemyAttack > round.PlayerAttack:
		round.Outcome = "enemy_hit"
		round.Damage = roundDamage
		muts = append(muts, Mutation{
			Kind:  MutationStatDelta,
			Stat:  StatStamina,
			Delta: -roundDamage,
		})
	default:
		round.Outcome = "clash"
	}
	return round, muts, nil
}
