package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/notebook/internal/telemetry/metrics"
	"github.com/2beens/notebook/internal/telemetry/tracing"
)

var ErrNoSelection = errors.New("no note selected")

// Store is what the manager needs from note persistence. Both Repo and
// the in-memory mock implement it.
type Store interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id int64) (*Note, error)
	Add(ctx context.Context, note *Note) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id int64) error
}

type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	opAdd    = "add"
	opEdit   = "edit"
	opDelete = "delete"

	reasonEmptyTitle   = "empty_title"
	reasonTitleTooLong = "title_too_long"
	reasonCancelled    = "cancelled"
	reasonNoSelection  = "no_selection"
	reasonDeclined     = "declined"
	reasonNotFound     = "not_found"
)

const (
	msgEmptyTitle   = "Title cannot be empty"
	msgTitleTooLong = "Title cannot be longer than 255 characters"
	msgNoSelection  = "Select a note first"
	msgNotFound     = "The selected note no longer exists"
)

// Snapshot is a consistent copy of what the view shows.
type Snapshot struct {
	Summaries []Summary
	Selected  int
	Detail    string
	State     State
}

// Manager keeps the list and detail views in sync with storage. Operations
// must not run concurrently; read accessors are safe from any goroutine.
type Manager struct {
	store    Store
	prompter Prompter
	validate *validator.Validate
	metrics  *metrics.Manager

	mu          sync.RWMutex
	summaries   []Summary
	selected    int
	detail      *Note
	state       State
	lastOutcome State
}

func NewManager(store Store, prompter Prompter, metricsManager *metrics.Manager) *Manager {
	return &Manager{
		store:       store,
		prompter:    prompter,
		validate:    newValidator(),
		metrics:     metricsManager,
		selected:    -1,
		state:       StateIdle,
		lastOutcome: StateIdle,
	}
}

// Summaries returns the listed notes in display order.
func (m *Manager) Summaries() []Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Summary(nil), m.summaries...)
}

// Rows returns the list labels in display order.
func (m *Manager) Rows() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]string, 0, len(m.summaries))
	for _, s := range m.summaries {
		rows = append(rows, s.Label())
	}
	return rows
}

// IDAt resolves a row index to the note id shown there.
func (m *Manager) IDAt(index int) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.summaries) {
		return 0, false
	}
	return m.summaries[index].ID, true
}

// Selected returns the selected row index, or -1.
func (m *Manager) Selected() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Detail returns a copy of the selected note, or nil.
func (m *Manager) Detail() *Note {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.detail == nil {
		return nil
	}
	detail := *m.detail
	return &detail
}

// DetailText is empty when nothing is selected.
func (m *Manager) DetailText() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.detail == nil {
		return ""
	}
	return m.detail.Detail()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastOutcome is Committed or Aborted for the last finished operation,
// Idle before any has finished.
func (m *Manager) LastOutcome() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastOutcome
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		Summaries: append([]Summary(nil), m.summaries...),
		Selected:  m.selected,
		State:     m.state,
	}
	if m.detail != nil {
		snap.Detail = m.detail.Detail()
	}
	return snap
}

// Load replaces the list with the current storage content and clears
// selection and detail.
func (m *Manager) Load(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notes.load")
	defer func() { tracing.EndSpan(span, err) }()

	summaries, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	m.mu.Lock()
	m.summaries = summaries
	m.selected = -1
	m.detail = nil
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.GaugeNotes.Set(float64(len(summaries)))
	}
	return nil
}

// Select shows the note at the given row. Out-of-range indexes are ignored.
func (m *Manager) Select(ctx context.Context, index int) (err error) {
	id, ok := m.IDAt(index)
	if !ok {
		return nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "notes.select")
	defer func() { tracing.EndSpan(span, err) }()

	note, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNoteNotFound) {
		log.Debugf("selected note %d is gone, reloading", id)
		return m.Load(ctx)
	}
	if err != nil {
		return fmt.Errorf("get note %d: %w", id, err)
	}

	m.mu.Lock()
	m.selected = index
	m.detail = note
	m.mu.Unlock()
	return nil
}

func (m *Manager) Add(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notes.add")
	defer func() { tracing.EndSpan(span, err) }()
	defer m.begin()()

	title, ok, err := m.prompter.AskText(ctx, "Add note", "Title:", "")
	if err != nil {
		return err
	}
	if !ok || title == "" {
		return m.abortWithWarning(ctx, opAdd, reasonEmptyTitle, msgEmptyTitle)
	}

	content, ok, err := m.prompter.AskText(ctx, "Add note", "Content:", "")
	if err != nil {
		return err
	}
	if !ok {
		m.abort(opAdd, reasonCancelled)
		return nil
	}

	note := &Note{Title: title, Content: content}
	if reason, msg, invalid := m.checkNote(note); invalid {
		return m.abortWithWarning(ctx, opAdd, reason, msg)
	}

	added, err := m.store.Add(ctx, note)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	log.Debugf("note %d added", added.ID)

	return m.commit(ctx, opAdd, "Note added")
}

func (m *Manager) Edit(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notes.edit")
	defer func() { tracing.EndSpan(span, err) }()
	defer m.begin()()

	id, err := m.selectedID()
	if errors.Is(err, ErrNoSelection) {
		return m.abortWithWarning(ctx, opEdit, reasonNoSelection, msgNoSelection)
	}

	current, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNoteNotFound) {
		return m.abortMissing(ctx, opEdit)
	}
	if err != nil {
		return fmt.Errorf("get note %d: %w", id, err)
	}

	title, ok, err := m.prompter.AskText(ctx, "Edit note", "Title:", current.Title)
	if err != nil {
		return err
	}
	if !ok || title == "" {
		return m.abortWithWarning(ctx, opEdit, reasonEmptyTitle, msgEmptyTitle)
	}

	content, ok, err := m.prompter.AskText(ctx, "Edit note", "Content:", current.Content)
	if err != nil {
		return err
	}
	if !ok {
		m.abort(opEdit, reasonCancelled)
		return nil
	}

	note := &Note{ID: id, Title: title, Content: content}
	if reason, msg, invalid := m.checkNote(note); invalid {
		return m.abortWithWarning(ctx, opEdit, reason, msg)
	}

	err = m.store.Update(ctx, note)
	if errors.Is(err, ErrNoteNotFound) {
		return m.abortMissing(ctx, opEdit)
	}
	if err != nil {
		return fmt.Errorf("update note %d: %w", id, err)
	}
	log.Debugf("note %d updated", id)

	return m.commit(ctx, opEdit, "Note updated")
}

func (m *Manager) Delete(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notes.delete")
	defer func() { tracing.EndSpan(span, err) }()
	defer m.begin()()

	id, err := m.selectedID()
	if errors.Is(err, ErrNoSelection) {
		return m.abortWithWarning(ctx, opDelete, reasonNoSelection, msgNoSelection)
	}

	confirmed, err := m.prompter.Confirm(ctx, "Delete note", "Delete the selected note?")
	if err != nil {
		return err
	}
	if !confirmed {
		m.abort(opDelete, reasonDeclined)
		return nil
	}

	err = m.store.Delete(ctx, id)
	if errors.Is(err, ErrNoteNotFound) {
		return m.abortMissing(ctx, opDelete)
	}
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	log.Debugf("note %d deleted", id)

	m.mu.Lock()
	m.detail = nil
	m.mu.Unlock()

	return m.commit(ctx, opDelete, "Note deleted")
}

func (m *Manager) selectedID() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.detail == nil || m.selected < 0 || m.selected >= len(m.summaries) {
		return 0, ErrNoSelection
	}
	return m.summaries[m.selected].ID, nil
}

// begin moves to AwaitingInput; the returned func moves back to Idle.
func (m *Manager) begin() func() {
	m.setState(StateAwaitingInput)
	return func() { m.setState(StateIdle) }
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	if s == StateCommitted || s == StateAborted {
		m.lastOutcome = s
	}
	m.mu.Unlock()
}

func (m *Manager) checkNote(note *Note) (reason, msg string, invalid bool) {
	err := validateNote(m.validate, note)
	switch {
	case err == nil:
		return "", "", false
	case errors.Is(err, ErrEmptyTitle):
		return reasonEmptyTitle, msgEmptyTitle, true
	case errors.Is(err, ErrTitleTooLong):
		return reasonTitleTooLong, msgTitleTooLong, true
	default:
		return "invalid", err.Error(), true
	}
}

// commit reloads the list before confirming to the user.
func (m *Manager) commit(ctx context.Context, op, message string) error {
	m.setState(StateCommitted)
	if m.metrics != nil {
		m.metrics.CounterNotesCommitted.WithLabelValues(op).Inc()
	}
	if err := m.Load(ctx); err != nil {
		return err
	}
	return m.prompter.Info(ctx, "Success", message)
}

func (m *Manager) abort(op, reason string) {
	m.setState(StateAborted)
	if m.metrics != nil {
		m.metrics.CounterNotesAborted.WithLabelValues(op, reason).Inc()
	}
	log.Debugf("%s aborted: %s", op, reason)
}

func (m *Manager) abortWithWarning(ctx context.Context, op, reason, message string) error {
	m.abort(op, reason)
	return m.prompter.Warn(ctx, "Warning", message)
}

// abortMissing handles a selected note that vanished from storage.
func (m *Manager) abortMissing(ctx context.Context, op string) error {
	m.abort(op, reasonNotFound)
	if err := m.Load(ctx); err != nil {
		return err
	}
	return m.prompter.Warn(ctx, "Warning", msgNotFound)
}
