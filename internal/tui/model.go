package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/domain"
	"ragchat/internal/service"
)

// ChatPort is the TUI-facing subset of the service.
type ChatPort interface {
	Chat(ctx context.Context, req service.ChatRequest) (string, error)
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	service  ChatPort
	input    textinput.Model
	viewport viewport.Model
	history  []domain.Message
	status   string
	waiting  bool
	ready    bool
}

type replyMsg struct {
	content string
	err     error
}

// New creates a new chat TUI model.
func New(svc ChatPort, banner string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "Ready."
	if banner != "" {
		status = banner
	}
	return Model{service: svc, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = append(m.history, domain.Message{Role: domain.RoleAssistant, Content: msg.content})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.history = append(m.history, domain.Message{Role: domain.RoleUser, Content: q})
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			history := append([]domain.Message(nil), m.history...)
			svc := m.service
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
				defer cancel()
				reply, err := svc.Chat(ctx, service.ChatRequest{Messages: history})
				return replyMsg{content: reply, err: err}
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and conversation.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragchat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No messages yet. Ask away."
	}
	var sb strings.Builder
	for i, msg := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.Role {
		case domain.RoleUser:
			sb.WriteString(userStyle.Render("You: "))
		case domain.RoleAssistant:
			sb.WriteString(assistantStyle.Render("Assistant: "))
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
