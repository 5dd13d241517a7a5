package rules

import "testing"

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		typ    ActionType
		target int
		item   string
	}{
		{name: "attack", raw: "I attack the orc with my sword", typ: ActionAttack},
		{name: "fight", raw: "fight the goblin", typ: ActionAttack},
		{name: "flee", raw: "I try to run away", typ: ActionFlee},
		{name: "test luck", raw: "I test my luck", typ: ActionTestLuck},
		{name: "navigate with number", raw: "go to 42", typ: ActionNavigate, target: 42},
		{name: "navigate descriptive", raw: "I head to the eastern passage", typ: ActionNavigate},
		{name: "return", raw: "return to 15", typ: ActionNavigate, target: 15},
		{name: "pickup", raw: "pick up the brass key", typ: ActionPickup, item: "BRASS_KEY"},
		{name: "grab", raw: "grab the rope!", typ: ActionPickup, item: "ROPE"},
		{name: "use item", raw: "drink the healing potion", typ: ActionUseItem, item: "HEALING_POTION"},
		{name: "open door", raw: "open the wooden door", typ: ActionOpen},
		{name: "plain talk", raw: "ask the old man about the mountain", typ: ActionOther},
		{name: "empty", raw: "", typ: ActionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ParseAction(tt.raw)
			if a.Type != tt.typ {
				t.Errorf("ParseAction(%q).Type = %s, want %s", tt.raw, a.Type, tt.typ)
			}
			if a.Target != tt.target {
				t.Errorf("ParseAction(%q).Target = %d, want %d", tt.raw, a.Target, tt.target)
			}
			if a.Item != tt.item {
				t.Errorf("ParseAction(%q).Item = %q, want %q", tt.raw, a.Item, tt.item)
			}
		})
	}
}

func TestNormalizeItem(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"brass key", "BRASS_KEY"},
		{"  healing  potion ", "HEALING_POTION"},
		{"rope", "ROPE"},
	}
	for _, tt := range tests {
		if got := normalizeItem(tt.in); got != tt.want {
			t.Errorf("normalizeItem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
