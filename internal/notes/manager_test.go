package notes_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/2beens/notebook/internal/notes"
	"github.com/2beens/notebook/internal/telemetry/metrics"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type managerTestSetup struct {
	ctx   context.Context
	store interface {
		notes.Store
		SetNow(func() time.Time)
		FailWith(error)
	}
	prompter *MockPrompter
	metrics  *metrics.Manager
	manager  *notes.Manager
}

func newManagerTestSetup(t *testing.T) *managerTestSetup {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := notes.NewMockNotesRepo()

	// strictly increasing clock, one second per write
	clock := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	s := &managerTestSetup{
		ctx:      context.Background(),
		store:    store,
		prompter: NewMockPrompter(ctrl),
		metrics:  metrics.NewTestManager(),
	}
	s.manager = notes.NewManager(s.store, s.prompter, s.metrics)
	require.NoError(t, s.manager.Load(s.ctx))
	return s
}

func (s *managerTestSetup) seed(t *testing.T, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := s.store.Add(s.ctx, &notes.Note{Title: title, Content: "content of " + title})
		require.NoError(t, err)
	}
	require.NoError(t, s.manager.Load(s.ctx))
}

func TestManager_Load(t *testing.T) {
	s := newManagerTestSetup(t)
	assert.Empty(t, s.manager.Rows())
	assert.Equal(t, -1, s.manager.Selected())
	assert.Empty(t, s.manager.DetailText())
	assert.Nil(t, s.manager.Detail())

	s.seed(t, "first", "second", "third")
	assert.Equal(t, []string{"3. third", "2. second", "1. first"}, s.manager.Rows())
	assert.Equal(t, float64(3), testutil.ToFloat64(s.metrics.GaugeNotes))

	id, ok := s.manager.IDAt(2)
	assert.True(t, ok)
	assert.EqualValues(t, 1, id)
	_, ok = s.manager.IDAt(3)
	assert.False(t, ok)

	// reload without mutation gives the same list
	before := s.manager.Summaries()
	require.NoError(t, s.manager.Load(s.ctx))
	assert.Equal(t, before, s.manager.Summaries())
}

func TestManager_Load_ClearsSelection(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a", "b")

	require.NoError(t, s.manager.Select(s.ctx, 1))
	assert.Equal(t, 1, s.manager.Selected())
	assert.NotEmpty(t, s.manager.DetailText())

	require.NoError(t, s.manager.Load(s.ctx))
	assert.Equal(t, -1, s.manager.Selected())
	assert.Empty(t, s.manager.DetailText())
}

func TestManager_Load_SameCreatedAtOrderedByInsertion(t *testing.T) {
	s := newManagerTestSetup(t)
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s.store.SetNow(func() time.Time { return fixed })

	s.seed(t, "a", "b", "c")
	assert.Equal(t, []string{"3. c", "2. b", "1. a"}, s.manager.Rows())
	for _, summary := range s.manager.Summaries() {
		note, err := s.store.Get(s.ctx, summary.ID)
		require.NoError(t, err)
		assert.True(t, fixed.Equal(note.CreatedAt))
	}

	// later notes still go on top
	s.store.SetNow(func() time.Time { return fixed.Add(time.Minute) })
	s.seed(t, "d")
	assert.Equal(t, []string{"4. d", "3. c", "2. b", "1. a"}, s.manager.Rows())
}

func TestManager_Select(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a", "b")

	require.NoError(t, s.manager.Select(s.ctx, 0))
	assert.Equal(t, 0, s.manager.Selected())
	assert.Equal(t, "Title: b\n\nContent:\ncontent of b", s.manager.DetailText())

	// out of range is ignored
	require.NoError(t, s.manager.Select(s.ctx, 5))
	require.NoError(t, s.manager.Select(s.ctx, -1))
	assert.Equal(t, 0, s.manager.Selected())
	assert.Equal(t, "b", s.manager.Detail().Title)

	snap := s.manager.Snapshot()
	assert.Equal(t, 0, snap.Selected)
	assert.Equal(t, s.manager.DetailText(), snap.Detail)
	assert.Len(t, snap.Summaries, 2)
	assert.Equal(t, notes.StateIdle, snap.State)
}

func TestManager_Select_NoteGone(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a", "b")

	require.NoError(t, s.store.Delete(s.ctx, 2))
	require.NoError(t, s.manager.Select(s.ctx, 0))
	assert.Equal(t, []string{"1. a"}, s.manager.Rows())
	assert.Equal(t, -1, s.manager.Selected())
}

func TestManager_Scenario(t *testing.T) {
	s := newManagerTestSetup(t)

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return("Meeting", true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Content:", "").Return("Discuss roadmap", true, nil),
		s.prompter.EXPECT().Info(gomock.Any(), "Success", "Note added").Return(nil),
	)
	require.NoError(t, s.manager.Add(s.ctx))
	assert.Equal(t, []string{"1. Meeting"}, s.manager.Rows())
	assert.Equal(t, notes.StateCommitted, s.manager.LastOutcome())

	require.NoError(t, s.manager.Select(s.ctx, 0))
	assert.Equal(t, "Title: Meeting\n\nContent:\nDiscuss roadmap", s.manager.DetailText())

	gomock.InOrder(
		s.prompter.EXPECT().Confirm(gomock.Any(), "Delete note", gomock.Any()).Return(true, nil),
		s.prompter.EXPECT().Info(gomock.Any(), "Success", "Note deleted").Return(nil),
	)
	require.NoError(t, s.manager.Delete(s.ctx))
	assert.Empty(t, s.manager.Rows())
	assert.Empty(t, s.manager.DetailText())
	assert.Equal(t, -1, s.manager.Selected())

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesCommitted.WithLabelValues("add")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesCommitted.WithLabelValues("delete")))
	assert.Equal(t, float64(0), testutil.ToFloat64(s.metrics.GaugeNotes))
}

func TestManager_Add_EmptyOrCancelledTitle(t *testing.T) {
	for name, answer := range map[string]struct {
		value string
		ok    bool
	}{
		"empty":     {value: "", ok: true},
		"cancelled": {value: "typed but cancelled", ok: false},
	} {
		t.Run(name, func(t *testing.T) {
			s := newManagerTestSetup(t)

			gomock.InOrder(
				s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return(answer.value, answer.ok, nil),
				s.prompter.EXPECT().Warn(gomock.Any(), "Warning", "Title cannot be empty").Return(nil),
			)
			require.NoError(t, s.manager.Add(s.ctx))

			listed, err := s.store.List(s.ctx)
			require.NoError(t, err)
			assert.Empty(t, listed)
			assert.Equal(t, notes.StateAborted, s.manager.LastOutcome())
			assert.Equal(t, notes.StateIdle, s.manager.State())
			assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("add", "empty_title")))
		})
	}
}

func TestManager_Add_ContentCancelled(t *testing.T) {
	s := newManagerTestSetup(t)

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return("T", true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Content:", "").Return("", false, nil),
	)
	require.NoError(t, s.manager.Add(s.ctx))

	listed, err := s.store.List(s.ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.Equal(t, notes.StateAborted, s.manager.LastOutcome())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("add", "cancelled")))
}

func TestManager_Add_EmptyContentAllowed(t *testing.T) {
	s := newManagerTestSetup(t)
	title := gofakeit.Name()

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return(title, true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Content:", "").Return("", true, nil),
		s.prompter.EXPECT().Info(gomock.Any(), "Success", "Note added").Return(nil),
	)
	require.NoError(t, s.manager.Add(s.ctx))

	require.NoError(t, s.manager.Select(s.ctx, 0))
	assert.Equal(t, title, s.manager.Detail().Title)
	assert.Empty(t, s.manager.Detail().Content)
}

func TestManager_Add_TitleTooLong(t *testing.T) {
	s := newManagerTestSetup(t)

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return(strings.Repeat("x", 256), true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Content:", "").Return("c", true, nil),
		s.prompter.EXPECT().Warn(gomock.Any(), "Warning", "Title cannot be longer than 255 characters").Return(nil),
	)
	require.NoError(t, s.manager.Add(s.ctx))
	assert.Empty(t, s.manager.Rows())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("add", "title_too_long")))
}

func TestManager_AwaitingInputWhilePrompting(t *testing.T) {
	s := newManagerTestSetup(t)

	s.prompter.EXPECT().
		AskText(gomock.Any(), "Add note", "Title:", "").
		DoAndReturn(func(context.Context, string, string, string) (string, bool, error) {
			assert.Equal(t, notes.StateAwaitingInput, s.manager.State())
			return "", false, nil
		})
	s.prompter.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	assert.Equal(t, notes.StateIdle, s.manager.LastOutcome())
	require.NoError(t, s.manager.Add(s.ctx))
	assert.Equal(t, notes.StateIdle, s.manager.State())
}

func TestManager_NoSelection(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a")

	s.prompter.EXPECT().Warn(gomock.Any(), "Warning", "Select a note first").Return(nil).Times(2)

	require.NoError(t, s.manager.Edit(s.ctx))
	require.NoError(t, s.manager.Delete(s.ctx))

	assert.Equal(t, []string{"1. a"}, s.manager.Rows())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("edit", "no_selection")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("delete", "no_selection")))
}

func TestManager_Edit(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "T1")
	require.NoError(t, s.manager.Select(s.ctx, 0))
	before := s.manager.Detail()

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Edit note", "Title:", "T1").Return("T2", true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Edit note", "Content:", "content of T1").Return("C2", true, nil),
		s.prompter.EXPECT().Info(gomock.Any(), "Success", "Note updated").Return(nil),
	)
	require.NoError(t, s.manager.Edit(s.ctx))

	assert.Equal(t, []string{"1. T2"}, s.manager.Rows())
	assert.Equal(t, -1, s.manager.Selected())

	after, err := s.store.Get(s.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "T2", after.Title)
	assert.Equal(t, "C2", after.Content)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
}

func TestManager_Edit_Aborts(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "T1")
	require.NoError(t, s.manager.Select(s.ctx, 0))

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Edit note", "Title:", "T1").Return("", true, nil),
		s.prompter.EXPECT().Warn(gomock.Any(), "Warning", "Title cannot be empty").Return(nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Edit note", "Title:", "T1").Return("T2", true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Edit note", "Content:", "content of T1").Return("C2", false, nil),
	)
	require.NoError(t, s.manager.Edit(s.ctx))
	require.NoError(t, s.manager.Edit(s.ctx))

	note, err := s.store.Get(s.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "T1", note.Title)
	assert.Equal(t, "content of T1", note.Content)
	// aborting keeps the selection
	assert.Equal(t, 0, s.manager.Selected())
	assert.Equal(t, float64(0), testutil.ToFloat64(s.metrics.CounterNotesCommitted.WithLabelValues("edit")))
}

func TestManager_Edit_NoteGone(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a", "b")
	require.NoError(t, s.manager.Select(s.ctx, 0))
	require.NoError(t, s.store.Delete(s.ctx, 2))

	s.prompter.EXPECT().Warn(gomock.Any(), "Warning", "The selected note no longer exists").Return(nil)
	require.NoError(t, s.manager.Edit(s.ctx))

	assert.Equal(t, []string{"1. a"}, s.manager.Rows())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("edit", "not_found")))
}

func TestManager_Delete_Declined(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a", "b")
	require.NoError(t, s.manager.Select(s.ctx, 1))

	s.prompter.EXPECT().Confirm(gomock.Any(), "Delete note", gomock.Any()).Return(false, nil)
	require.NoError(t, s.manager.Delete(s.ctx))

	assert.Equal(t, []string{"2. b", "1. a"}, s.manager.Rows())
	assert.Equal(t, 1, s.manager.Selected())
	assert.Equal(t, "a", s.manager.Detail().Title)
	assert.Equal(t, notes.StateAborted, s.manager.LastOutcome())
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.CounterNotesAborted.WithLabelValues("delete", "declined")))
}

func TestManager_StorageFailurePropagates(t *testing.T) {
	s := newManagerTestSetup(t)
	s.seed(t, "a")
	connErr := errors.New("connection reset by peer")

	s.store.FailWith(connErr)
	err := s.manager.Load(s.ctx)
	assert.ErrorIs(t, err, connErr)

	gomock.InOrder(
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Title:", "").Return("T", true, nil),
		s.prompter.EXPECT().AskText(gomock.Any(), "Add note", "Content:", "").Return("C", true, nil),
	)
	err = s.manager.Add(s.ctx)
	assert.ErrorIs(t, err, connErr)
	assert.Equal(t, notes.StateIdle, s.manager.State())

	s.store.FailWith(nil)
	listed, err := s.store.List(s.ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestManager_PrompterErrorStopsOperation(t *testing.T) {
	s := newManagerTestSetup(t)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.prompter.EXPECT().AskText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", false, context.Canceled)
	assert.ErrorIs(t, s.manager.Add(ctx), context.Canceled)
	assert.Empty(t, s.manager.Rows())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", notes.StateIdle.String())
	assert.Equal(t, "awaiting_input", notes.StateAwaitingInput.String())
	assert.Equal(t, "committed", notes.StateCommitted.String())
	assert.Equal(t, "aborted", notes.StateAborted.String())
	assert.Equal(t, "state(9)", notes.State(9).String())
}
