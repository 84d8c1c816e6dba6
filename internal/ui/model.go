package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/notebook/internal/notes"
)

// Controller is the part of notes.Manager the view drives.
type Controller interface {
	Load(ctx context.Context) error
	Select(ctx context.Context, index int) error
	Add(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	Snapshot() notes.Snapshot
}

// opDoneMsg reports the end of the operation numbered seq.
type opDoneMsg struct {
	seq int
	err error
}

type noteItem struct {
	s notes.Summary
}

func (i noteItem) Title() string       { return i.s.Label() }
func (i noteItem) Description() string { return "" }
func (i noteItem) FilterValue() string { return i.s.Title }

type Model struct {
	ctx      context.Context
	ctrl     Controller
	prompter *Prompter

	width  int
	height int

	noteList list.Model
	detail   viewport.Model
	input    textinput.Model

	snapshot notes.Snapshot
	busy     bool
	opSeq    int
	modal    *promptRequest
	err      error

	help     help.Model
	keys     KeyMap
	showHelp bool
}

func newDelegate(highlight bool) list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	d.SetHeight(1)
	d.SetSpacing(0)
	if !highlight {
		d.Styles.SelectedTitle = d.Styles.NormalTitle
	}
	return d
}

// NewModel builds the view in its loading state: Init dispatches the first
// Load as operation 1 and keys stay ignored until it is done.
func NewModel(ctx context.Context, ctrl Controller, prompter *Prompter) Model {
	l := list.New([]list.Item{}, newDelegate(false), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)

	ti := textinput.New()
	ti.Prompt = "> "

	h := help.New()
	h.ShowAll = false

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		prompter: prompter,
		noteList: l,
		detail:   vp,
		input:    ti,
		snapshot: notes.Snapshot{Selected: -1},
		busy:     true,
		opSeq:    1,
		help:     h,
		keys:     DefaultKeyMap(),
	}
}

// Err is the storage failure that stopped the UI, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.prompter.waitForPrompt(),
		m.run(m.opSeq, m.ctrl.Load),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case promptMsg:
		m.modal = msg.req
		if msg.req.kind == promptText {
			m.input.SetValue(msg.req.initial)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
		return m, nil

	case opDoneMsg:
		if msg.seq != m.opSeq {
			log.Warnf("dropping result of stale operation %d, current is %d", msg.seq, m.opSeq)
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			log.Errorf("note operation failed: %s", msg.err)
			m.err = msg.err
			return m.quit()
		}
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m.quit()
		}
		if m.modal != nil {
			return m.updateModal(msg)
		}
		// one operation at a time
		if m.busy {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil

		// with nothing selected the first move picks the row under the cursor
		case key.Matches(msg, m.keys.Up):
			if m.hasSelection() {
				m.noteList.CursorUp()
			}
			return m.selectCurrent()

		case key.Matches(msg, m.keys.Down):
			if m.hasSelection() {
				m.noteList.CursorDown()
			}
			return m.selectCurrent()

		case key.Matches(msg, m.keys.View):
			return m.selectCurrent()

		case key.Matches(msg, m.keys.Add):
			return m.start(m.ctrl.Add)

		case key.Matches(msg, m.keys.Edit):
			return m.start(m.ctrl.Edit)

		case key.Matches(msg, m.keys.Delete):
			return m.start(m.ctrl.Delete)
		}
		return m, nil
	}

	if m.modal != nil && m.modal.kind == promptText {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal.kind {
	case promptText:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.answer(promptReply{value: m.input.Value(), ok: true})
		case key.Matches(msg, m.keys.Cancel):
			return m.answer(promptReply{})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case promptConfirm:
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(promptReply{ok: true})
		case key.Matches(msg, m.keys.No):
			return m.answer(promptReply{})
		}

	default:
		if key.Matches(msg, m.keys.Submit) || key.Matches(msg, m.keys.Cancel) {
			return m.answer(promptReply{ok: true})
		}
	}
	return m, nil
}

func (m Model) answer(reply promptReply) (tea.Model, tea.Cmd) {
	m.modal.reply <- reply
	m.modal = nil
	m.input.Blur()
	m.input.Reset()
	return m, m.prompter.waitForPrompt()
}

func (m Model) start(op func(context.Context) error) (tea.Model, tea.Cmd) {
	m.busy = true
	m.opSeq++
	return m, m.run(m.opSeq, op)
}

func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	if len(m.noteList.Items()) == 0 {
		return m, nil
	}
	index := m.noteList.Index()
	return m.start(func(ctx context.Context) error {
		return m.ctrl.Select(ctx, index)
	})
}

func (m Model) run(seq int, op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{seq: seq, err: op(ctx)}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.prompter.Close()
	return m, tea.Quit
}

// ---------- rendering ----------

var (
	border = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))

	titleStyle  = lipgloss.NewStyle().Bold(true)
	blurStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	modalStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(1, 2)
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	if m.modal != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderModal())
	}

	root := lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), m.renderDetail())
	return lipgloss.JoinVertical(lipgloss.Left, root, m.renderHelp())
}

func (m Model) renderList() string {
	box := border.Width(m.noteList.Width()).Height(m.noteList.Height()+1).Padding(0, 1)
	header := titleStyle.Render("Notes")
	if len(m.snapshot.Summaries) == 0 {
		return box.Render(header + "\n" + blurStyle.Render("No notes yet, press 'a' to add one."))
	}
	return box.Render(header + "\n" + m.noteList.View())
}

func (m Model) renderDetail() string {
	content := m.detail.View()
	if strings.TrimSpace(m.snapshot.Detail) == "" {
		content = blurStyle.Render("Select a note to view it.")
	}

	w := m.width - m.noteList.Width() - 8
	if w < 20 {
		w = 20
	}
	box := border.Width(w).Height(m.noteList.Height()+1).Padding(0, 1)
	return box.Render(titleStyle.Render("Detail") + "\n" + content)
}

func (m Model) renderModal() string {
	var body string
	switch m.modal.kind {
	case promptText:
		body = m.modal.message + "\n\n" + m.input.View() + "\n\n" + m.help.View(textKeyMap{KeyMap: m.keys})
	case promptConfirm:
		body = m.modal.message + "\n\n" + m.help.View(confirmKeyMap{KeyMap: m.keys})
	case promptWarn:
		body = warnStyle.Render(m.modal.message) + "\n\n" + statusStyle.Render("enter to dismiss")
	default:
		body = m.modal.message + "\n\n" + statusStyle.Render("enter to dismiss")
	}
	return modalStyle.Render(titleStyle.Render(m.modal.title) + "\n\n" + body)
}

func (m Model) renderHelp() string {
	line := m.help.View(m.keys)
	if m.busy {
		line = statusStyle.Render("working...") + "  " + line
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(line)
}

// ---------- helpers ----------

func (m *Model) layout() {
	listW := max(28, min(44, m.width/3))
	contentH := max(10, m.height-3)

	m.noteList.SetSize(listW-4, contentH-4)
	m.detail.Width = max(20, m.width-listW-8)
	m.detail.Height = contentH - 5
	m.input.Width = max(20, m.width/2)
}

func (m Model) hasSelection() bool {
	return m.snapshot.Selected >= 0 && m.snapshot.Selected < len(m.snapshot.Summaries)
}

// applySnapshot redraws list and detail from state taken after an operation.
// Without a selection the cursor goes back to the top row and is not highlighted.
func (m *Model) applySnapshot(snap notes.Snapshot) {
	m.snapshot = snap

	items := make([]list.Item, 0, len(snap.Summaries))
	for _, s := range snap.Summaries {
		items = append(items, noteItem{s: s})
	}
	m.noteList.SetItems(items)
	if m.hasSelection() {
		m.noteList.Select(snap.Selected)
	} else {
		m.noteList.ResetSelected()
	}
	m.noteList.SetDelegate(newDelegate(m.hasSelection()))

	m.detail.SetContent(snap.Detail)
	m.detail.GotoTop()
}
