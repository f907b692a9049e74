// Package tui provides the terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

// Asker is the TUI-facing subset of the query use case.
type Asker interface {
	Ask(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error)
}

type answerMsg struct {
	resp *entities.ChatResponse
	err  error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	ctx      context.Context
	service  Asker
	input    textinput.Model
	viewport viewport.Model
	history  []entities.ChatMessage
	sources  []entities.SearchHit
	useRAG   bool
	waiting  bool
	status   string
	ready    bool
}

// New creates a chat model. Ctrl+R toggles retrieval.
func New(ctx context.Context, service Asker) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		useRAG:   true,
		status:   "Ready. Enter to send, Ctrl+R toggles RAG, Ctrl+C quits.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, sources, status, input
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.history = m.history[:len(m.history)-1]
			m.refresh()
			return m, nil
		}
		m.sources = msg.resp.Sources
		m.history = append(m.history, entities.ChatMessage{Role: entities.RoleAssistant, Content: replyText(msg.resp)})
		m.status = fmt.Sprintf("%d sources", len(msg.resp.Sources))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.useRAG = !m.useRAG
			m.status = fmt.Sprintf("RAG %s", onOff(m.useRAG))
			return m, nil
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			prior := append([]entities.ChatMessage(nil), m.history...)
			m.history = append(m.history, entities.ChatMessage{Role: entities.RoleUser, Content: text})
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			m.refresh()
			return m, m.ask(text, prior)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(text string, history []entities.ChatMessage) tea.Cmd {
	ctx, service, useRAG := m.ctx, m.service, m.useRAG
	return func() tea.Msg {
		resp, err := service.Ask(ctx, &entities.ChatRequest{Message: text, UseRAG: useRAG, History: history})
		return answerMsg{resp: resp, err: err}
	}
}

// View renders the transcript, sources, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("LocalRAG") + " " +
		dimStyle.Render("rag "+onOff(m.useRAG))
	sources := dimStyle.Render(sourceLine(m.sources))
	status := statusStyle.Render(m.status)
	return header + "\n" + transcriptStyle.Render(m.viewport.View()) + "\n" +
		sources + "\n" + inputStyle.Render(m.input.View()) + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.history))
	m.viewport.GotoBottom()
}

func renderTranscript(history []entities.ChatMessage) string {
	if len(history) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == entities.RoleUser {
			b.WriteString(userStyle.Render("you: "))
		} else {
			b.WriteString(botStyle.Render("assistant: "))
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}

func replyText(resp *entities.ChatResponse) string {
	if resp.Tool != nil {
		return fmt.Sprintf("[%s %s]\n%s", resp.Tool.Tool, resp.Tool.Target, resp.Tool.Content)
	}
	return resp.Answer
}

func sourceLine(hits []entities.SearchHit) string {
	if len(hits) == 0 {
		return "sources: none"
	}
	names := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Source]; ok {
			continue
		}
		seen[h.Source] = struct{}{}
		names = append(names, h.Source)
	}
	return "sources: " + strings.Join(names, ", ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
