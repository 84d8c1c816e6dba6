package notes

import "context"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=notes_test

// Prompter is the blocking dialog surface the manager talks to.
// Every call returns only after the user answered it.
type Prompter interface {
	// AskText returns ok == false when the user cancelled the prompt.
	AskText(ctx context.Context, title, prompt, initial string) (value string, ok bool, err error)
	Confirm(ctx context.Context, title, question string) (bool, error)
	Warn(ctx context.Context, title, message string) error
	Info(ctx context.Context, title, message string) error
}
