package notes

import (
	"context"
	"sort"
	"time"
)

// repoMock is an in-memory Store with the same ordering and id rules as Repo.
type repoMock struct {
	notes  map[int64]*Note
	lastID int64
	now    func() time.Time
	err    error
}

func NewMockNotesRepo() *repoMock {
	return &repoMock{
		notes: make(map[int64]*Note),
		now:   time.Now,
	}
}

// SetNow replaces the clock used for created_at / updated_at.
func (r *repoMock) SetNow(now func() time.Time) {
	r.now = now
}

// FailWith makes every following call return err, until reset with nil.
func (r *repoMock) FailWith(err error) {
	r.err = err
}

func (r *repoMock) Add(_ context.Context, note *Note) (*Note, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err := validateNote(newValidator(), note); err != nil {
		return nil, err
	}

	r.lastID++
	now := r.now()
	stored := &Note{
		ID:        r.lastID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.notes[stored.ID] = stored

	added := *stored
	return &added, nil
}

func (r *repoMock) Update(_ context.Context, note *Note) error {
	if r.err != nil {
		return r.err
	}
	if err := validateNote(newValidator(), note); err != nil {
		return err
	}

	stored, ok := r.notes[note.ID]
	if !ok {
		return ErrNoteNotFound
	}

	updatedAt := r.now()
	if !updatedAt.After(stored.UpdatedAt) {
		updatedAt = stored.UpdatedAt.Add(time.Microsecond)
	}
	stored.Title = note.Title
	stored.Content = note.Content
	stored.UpdatedAt = updatedAt
	return nil
}

func (r *repoMock) Get(_ context.Context, id int64) (*Note, error) {
	if r.err != nil {
		return nil, r.err
	}
	note, ok := r.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	found := *note
	return &found, nil
}

func (r *repoMock) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.notes[id]; !ok {
		return ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *repoMock) List(context.Context) ([]Summary, error) {
	if r.err != nil {
		return nil, r.err
	}

	all := make([]*Note, 0, len(r.notes))
	for _, n := range r.notes {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	summaries := make([]Summary, 0, len(all))
	for _, n := range all {
		summaries = append(summaries, Summary{ID: n.ID, Title: n.Title})
	}
	return summaries, nil
}
