package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2beens/notebook/internal/storage"
	"github.com/2beens/notebook/pkg"
)

var ErrNoteNotFound = errors.New("note not found")

type gateway interface {
	Query(ctx context.Context, statement string, args ...any) ([]storage.Row, error)
	Execute(ctx context.Context, statement string, args ...any) (int64, error)
}

// Repo maps notes onto the notes table through the storage gateway.
type Repo struct {
	gw       gateway
	validate *validator.Validate
	now      func() time.Time
}

func NewRepo(gw gateway) *Repo {
	return &Repo{
		gw:       gw,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (r *Repo) Add(ctx context.Context, note *Note) (*Note, error) {
	if err := validateNote(r.validate, note); err != nil {
		return nil, err
	}

	rows, err := r.gw.Query(
		ctx,
		`INSERT INTO notes (title, content) VALUES ($1, $2) RETURNING id, created_at, updated_at;`,
		note.Title, note.Content,
	)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("insert note: unexpected rows returned: %d", len(rows))
	}

	added := &Note{
		Title:   note.Title,
		Content: note.Content,
	}
	if added.ID, err = rows[0].Int64(0); err != nil {
		return nil, err
	}
	if added.CreatedAt, err = rows[0].Time(1); err != nil {
		return nil, err
	}
	if added.UpdatedAt, err = rows[0].Time(2); err != nil {
		return nil, err
	}

	return added, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*Note, error) {
	rows, err := r.gw.Query(
		ctx,
		`SELECT id, title, content, created_at, updated_at FROM notes WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoteNotFound
	}

	return noteFromRow(rows[0])
}

// Update replaces title and content. updated_at is set here and never
// moves backwards, even when the app clock lags the database clock.
func (r *Repo) Update(ctx context.Context, note *Note) error {
	if err := validateNote(r.validate, note); err != nil {
		return err
	}

	affected, err := r.gw.Execute(
		ctx,
		`UPDATE notes
		SET title = $1, content = $2,
			updated_at = GREATEST($3::timestamptz, updated_at + interval '1 microsecond')
		WHERE id = $4;`,
		note.Title, note.Content, r.now(), note.ID,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	affected, err := r.gw.Execute(
		ctx,
		`DELETE FROM notes WHERE id = $1;`,
		id,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// List returns all notes, newest first. Notes created within the same
// instant keep their insertion order (higher id first).
func (r *Repo) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.gw.Query(
		ctx,
		`
			SELECT
				id, title
			FROM notes
			ORDER BY created_at DESC, id DESC;`,
	)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		id, err := row.Int64(0)
		if err != nil {
			return nil, err
		}
		title, err := row.String(1)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summary{ID: id, Title: title})
	}

	return summaries, nil
}

func noteFromRow(row storage.Row) (*Note, error) {
	var (
		note Note
		err  error
	)
	if note.ID, err = row.Int64(0); err != nil {
		return nil, err
	}
	if note.Title, err = row.String(1); err != nil {
		return nil, err
	}
	if note.Content, err = row.String(2); err != nil {
		return nil, err
	}
	if note.CreatedAt, err = row.Time(3); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = row.Time(4); err != nil {
		return nil, err
	}
	return &note, nil
}

func mapWriteErr(err error) error {
	switch {
	case pkg.IsCheckViolationError(err):
		return fmt.Errorf("%w: %w", ErrEmptyTitle, err)
	case pkg.IsStringTooLongError(err):
		return fmt.Errorf("%w: %w", ErrTitleTooLong, err)
	default:
		return err
	}
}
