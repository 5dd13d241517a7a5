package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
	"github.com/jwebster45206/gamebook-engine/pkg/textfilter"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	gameState    *state.GameState
	lastTurn     *chat.TurnResponse
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Book selection state
	showBookModal bool
	books         []string
	selectedBook  int
	loadingBooks  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type booksLoadedMsg struct {
	books []string
	err   error
}

type gameStateCreatedMsg struct {
	gameState *state.GameState
	err       error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // red
			Bold(true)

	victoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")). // gold
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		textarea:      ta,
		chatViewport:  chatVp,
		metaViewport:  metaVp,
		ready:         false,
		showBookModal: true,
		loadingBooks:  true,
		selectedBook:  0,
	}
}

func (m *ConsoleUI) writeMetadata() string {
	gs := m.gameState
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE SHEET") + "\n\n")

	content.WriteString("Game ID:\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Book:\n")
	content.WriteString(gs.BookID + "\n\n")

	stats := gs.PublicStats()
	if m.lastTurn != nil && m.lastTurn.Stats != nil {
		stats = m.lastTurn.Stats
	}
	content.WriteString("Stats:\n")
	for _, name := range []string{"skill", "stamina", "luck", "gold"} {
		content.WriteString(fmt.Sprintf("• %s: %d\n", textfilter.DisplayName(strings.ToUpper(name)), stats[name]))
	}
	content.WriteString("\n")

	inventory := gs.Inventory
	if m.lastTurn != nil {
		inventory = m.lastTurn.Inventory
	}
	content.WriteString("Inventory:\n")
	if len(inventory) == 0 {
		content.WriteString("Empty\n")
	} else {
		for _, item := range textfilter.DisplayNames(inventory) {
			content.WriteString("• " + item + "\n")
		}
	}
	content.WriteString("\n")

	if m.lastTurn != nil && m.lastTurn.InCombat {
		content.WriteString(combatStyle.Render("IN COMBAT") + "\n\n")
	}
	if m.lastTurn != nil && m.lastTurn.GameOver {
		if m.lastTurn.Victory {
			content.WriteString(victoryStyle.Render("VICTORY") + "\n\n")
		} else {
			content.WriteString(errorStyle.Render("YOUR ADVENTURE ENDS HERE") + "\n\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy last narration\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

// writeChatContent builds the chat content from game state for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("GAMEBOOK ENGINE") + "\n\n")
	content.WriteString("Describe your actions to play through the adventure.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.gameState != nil {
		for _, msg := range m.gameState.ChatHistory {
			switch msg.Role {
			case chat.ChatRoleAgent, chat.ChatRoleSystem:
				content.WriteString(formatNarratorResponse(msg.Content, chatWidth) + "\n\n")
			case chat.ChatRoleUser:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
			}
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showBookModal {
		return m.loadBooks()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showBookModal {
		return m.updateBookModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		if m.gameState != nil {
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if narration := m.lastNarration(); narration != "" {
				// Best effort; headless terminals may have no clipboard
				_ = clipboard.WriteAll(narration)
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.lastTurn != nil && m.lastTurn.GameOver {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.gameState.ChatHistory = append(m.gameState.ChatHistory, chat.ChatMessage{
				Role:    chat.ChatRoleUser,
				Content: input,
			})
			m.writeChatContent()

			return m, tea.Batch(m.sendTurnCmd(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.lastTurn = msg.response
			m.gameState.ChatHistory = append(m.gameState.ChatHistory, chat.ChatMessage{
				Role:    chat.ChatRoleAgent,
				Content: msg.response.Narrative,
			})
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
		}
		m.chatViewport.GotoBottom()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// lastNarration returns the most recent narrator message, if any.
func (m *ConsoleUI) lastNarration() string {
	if m.gameState == nil {
		return ""
	}
	for i := len(m.gameState.ChatHistory) - 1; i >= 0; i-- {
		if m.gameState.ChatHistory[i].Role == chat.ChatRoleAgent {
			return m.gameState.ChatHistory[i].Content
		}
	}
	return ""
}

func formatNarratorResponse(response string, width int) string {
	narratorPrefix := AgentName + ": "
	wrapWidth := width - len(narratorPrefix)
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	wrapped := wordwrap.String(response, wrapWidth)
	return narratorStyle.Render(narratorPrefix) + wrapped
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• Ctrl+Y - Copy last narration
• Ctrl+C - Quit game

How to play:
• Describe your actions and press Enter
• Mentioned items can be taken if they are truly present
• During combat you must fight, flee, or use an item
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendTurnCmd(action string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.gameState.ID, action)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) loadBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := listBooks(m.client, m.config.APIBaseURL)
		return booksLoadedMsg{books, err}
	}
}

func (m ConsoleUI) createGameStateFromBook(bookID string) tea.Cmd {
	return func() tea.Msg {
		gs, err := createGameState(m.client, m.config.APIBaseURL, bookID)
		return gameStateCreatedMsg{gs, err}
	}
}

func (m ConsoleUI) updateBookModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case booksLoadedMsg:
		m.loadingBooks = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.books = msg.books
		}

	case gameStateCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.gameState = msg.gameState
			m.showBookModal = false
			if m.width > 0 && m.height > 0 {
				chatWidth := int(float64(m.width)*0.75) - 4
				metaWidth := m.width - chatWidth - 6
				m.chatViewport.Width = chatWidth - 2
				m.chatViewport.Height = m.height - 7
				m.metaViewport.Width = metaWidth - 2
				m.metaViewport.Height = m.height - 4
				m.textarea.SetWidth(chatWidth - 4)
			}
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingBooks || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedBook > 0 {
				m.selectedBook--
			}
		case tea.KeyDown:
			if m.selectedBook < len(m.books)-1 {
				m.selectedBook++
			}
		case tea.KeyEnter:
			if len(m.books) > 0 {
				m.loading = true
				return m, m.createGameStateFromBook(m.books[m.selectedBook])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showBookModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abandon Adventure?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderBookModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingBooks {
		content.WriteString(modalTitleStyle.Render("Loading Books..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the library..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load books: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Rolling Your Stats..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Preparing your adventure..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Choose Your Adventure"))
		content.WriteString("\n\n")

		for i, bookID := range m.books {
			if i == m.selectedBook {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", bookID)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", bookID)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showBookModal {
		return m.renderBookModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
