package notes

import (
	"fmt"
	"time"
)

type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title" validate:"required,max=255"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is one row of the notes list.
type Summary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (s Summary) Label() string {
	return fmt.Sprintf("%d. %s", s.ID, s.Title)
}

// Detail is the read-only text shown for the selected note.
func (n *Note) Detail() string {
	return fmt.Sprintf("Title: %s\n\nContent:\n%s", n.Title, n.Content)
}
