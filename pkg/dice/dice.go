package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// MaxDice limits how many dice a single roll may request.
const MaxDice = 10

// validSides are the die sizes accepted in notation.
var validSides = map[int]bool{4: true, 6: true, 8: true, 10: true, 12: true, 20: true}

var notationPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Roll is the outcome of a dice roll, keeping the individual die
// results alongside the total so narration can quote them.
type Roll struct {
	Notation string `json:"notation"`
	Rolls    []int  `json:"rolls"`
	Modifier int    `json:"modifier"`
	Total    int    `json:"total"`
}

// String renders the roll for narration, e.g. "2d6+1: [4, 2] +1 = 7".
func (r Roll) String() string {
	parts := make([]string, len(r.Rolls))
	for i, v := range r.Rolls {
		parts[i] = strconv.Itoa(v)
	}
	s := fmt.Sprintf("%s: [%s]", r.Notation, strings.Join(parts, ", "))
	if r.Modifier > 0 {
		s += fmt.Sprintf(" +%d", r.Modifier)
	} else if r.Modifier < 0 {
		s += fmt.Sprintf(" %d", r.Modifier)
	}
	return fmt.Sprintf("%s = %d", s, r.Total)
}

// Roller produces rolls from a seedable source so tests can be
// deterministic.
type Roller struct {
	rng *rand.Rand
}

// NewRoller creates a roller from the given source. A nil source uses
// the shared global generator.
func NewRoller(src rand.Source) *Roller {
	if src == nil {
		return &Roller{}
	}
	return &Roller{rng: rand.New(src)}
}

func (r *Roller) die(sides int) int {
	if r.rng != nil {
		return r.rng.Intn(sides) + 1
	}
	return rand.Intn(sides) + 1
}

// Parse validates dice notation of the form NdM or NdM+X / NdM-X.
// Only d4, d6, d8, d10, d12 and d20 are accepted, with at most
// MaxDice dice per roll.
func Parse(notation string) (count, sides, modifier int, err error) {
	m := notationPattern.FindStringSubmatch(strings.TrimSpace(strings.ToLower(notation)))
	if m == nil {
		return 0, 0, 0, fmt.Errorf("invalid dice notation %q, expected NdM or NdM+X", notation)
	}
	count, _ = strconv.Atoi(m[1])
	sides, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		modifier, _ = strconv.Atoi(m[3])
	}
	if count < 1 || count > MaxDice {
		return 0, 0, 0, fmt.Errorf("dice count %d out of range 1-%d", count, MaxDice)
	}
	if !validSides[sides] {
		return 0, 0, 0, fmt.Errorf("unsupported die d%d, use d4, d6, d8, d10, d12 or d20", sides)
	}
	return count, sides, modifier, nil
}

// RollNotation parses and rolls the given notation.
func (r *Roller) RollNotation(notation string) (Roll, error) {
	count, sides, modifier, err := Parse(notation)
	if err != nil {
		return Roll{}, err
	}
	roll := Roll{
		Notation: strings.TrimSpace(strings.ToLower(notation)),
		Rolls:    make([]int, count),
		Modifier: modifier,
		Total:    modifier,
	}
	for i := range roll.Rolls {
		v := r.die(sides)
		roll.Rolls[i] = v
		roll.Total += v
	}
	return roll, nil
}

// TestResult is the outcome of a luck or skill test.
type TestResult struct {
	Roll    Roll `json:"roll"`
	Against int  `json:"against"`
	Success bool `json:"success"`
}

// TestLuck rolls 2d6 against the given luck value. The test succeeds
// when the roll is less than or equal to luck. Callers must decrement
// luck by one after every test, win or lose.
func (r *Roller) TestLuck(luck int) TestResult {
	roll, _ := r.RollNotation("2d6")
	return TestResult{Roll: roll, Against: luck, Success: roll.Total <= luck}
}

// TestSkill rolls 2d6 against skill plus an optional modifier. The
// test succeeds when the roll is less than or equal to the adjusted
// skill. Skill is not consumed by testing.
func (r *Roller) TestSkill(skill, modifier int) TestResult {
	roll, _ := r.RollNotation("2d6")
	target := skill + modifier
	return TestResult{Roll: roll, Against: target, Success: roll.Total <= target}
}
