package state

import "github.com/jwebster45206/gamebook-engine/pkg/book"

// TerminalVerdict is the result of checking a post-turn state for
// game-ending conditions.
type TerminalVerdict struct {
	GameOver bool   `json:"game_over"`
	Victory  bool   `json:"victory"`
	Reason   string `json:"reason,omitempty"`
}

// CheckTerminal inspects the updated state. Stamina at zero is always
// defeat; otherwise the book's ending metadata decides whether the
// current section ends the adventure.
func CheckTerminal(gs *GameState, b *book.Book) TerminalVerdict {
	if gs.Stats.Stamina <= 0 {
		return TerminalVerdict{GameOver: true, Victory: false, Reason: "stamina exhausted"}
	}
	if b != nil {
		if ending, ok := b.EndingAt(gs.CurrentSection); ok {
			reason := ending.Summary
			if reason == "" {
				if ending.Victory {
					reason = "reached a victory ending"
				} else {
					reason = "reached a fatal ending"
				}
			}
			return TerminalVerdict{GameOver: true, Victory: ending.Victory, Reason: reason}
		}
	}
	return TerminalVerdict{}
}
