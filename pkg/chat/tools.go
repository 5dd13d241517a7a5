package chat

// Canonical tool names exposed to the model during tool-augmented
// generation. Every call with one of these names is re-validated by
// the engine before any game state changes.
const (
	ToolUpdateStat        = "update_stat"
	ToolAddItem           = "add_item"
	ToolRemoveItem        = "remove_item"
	ToolCheckItem         = "check_item"
	ToolAttemptNavigation = "attempt_navigation"
	ToolSetFlag           = "set_flag"
	ToolRollDice          = "roll_dice"
)

// ToolParam describes one parameter of a tool in a provider-agnostic
// way. Type is one of "string", "integer", "boolean".
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolDefinition is a provider-agnostic function declaration. LLM
// services translate these into their native schema format.
type ToolDefinition struct {
	Name        string
	Description string
	Params      []ToolParam
}

// GameTools returns the bounded tool set available to the narrator
// model. The set is fixed; the model cannot request tools outside it.
func GameTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolUpdateStat,
			Description: "Adjust a character stat (skill, stamina, luck, gold) by a positive or negative amount. Use when the story causes a mechanical change, e.g. losing 2 stamina to a trap.",
			Params: []ToolParam{
				{Name: "stat", Type: "string", Description: "One of: skill, stamina, luck, gold", Required: true},
				{Name: "delta", Type: "integer", Description: "Change amount, negative for losses", Required: true},
			},
		},
		{
			Name:        ToolAddItem,
			Description: "Add an item to the player's inventory. Only items actually present in the current section are accepted.",
			Params: []ToolParam{
				{Name: "item", Type: "string", Description: "Item name in UPPER_SNAKE_CASE", Required: true},
			},
		},
		{
			Name:        ToolRemoveItem,
			Description: "Remove an item from the player's inventory (used up, lost, or given away).",
			Params: []ToolParam{
				{Name: "item", Type: "string", Description: "Item name in UPPER_SNAKE_CASE", Required: true},
			},
		},
		{
			Name:        ToolCheckItem,
			Description: "Check whether the player carries an item. Use before narrating around a required item.",
			Params: []ToolParam{
				{Name: "item", Type: "string", Description: "Item name in UPPER_SNAKE_CASE", Required: true},
			},
		},
		{
			Name:        ToolAttemptNavigation,
			Description: "Move the player to another section of the book. Only sections reachable from the current one are accepted.",
			Params: []ToolParam{
				{Name: "target", Type: "integer", Description: "Destination section number", Required: true},
			},
		},
		{
			Name:        ToolSetFlag,
			Description: "Record story progression (door opened, boss defeated, key used).",
			Params: []ToolParam{
				{Name: "flag", Type: "string", Description: "Flag name in lower_snake_case", Required: true},
				{Name: "value", Type: "string", Description: "Flag value, usually \"true\"", Required: true},
			},
		},
		{
			Name:        ToolRollDice,
			Description: "Roll dice using RPG notation (e.g. 2d6, 1d6+3). The result is authoritative; never narrate a different number.",
			Params: []ToolParam{
				{Name: "notation", Type: "string", Description: "Dice notation NdM or NdM+X", Required: true},
			},
		},
	}
}
