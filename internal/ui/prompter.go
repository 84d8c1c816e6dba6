package ui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrPrompterClosed = errors.New("prompter closed")

type promptKind int

const (
	promptText promptKind = iota
	promptConfirm
	promptWarn
	promptInfo
)

type promptReply struct {
	value string
	ok    bool
}

type promptRequest struct {
	kind    promptKind
	title   string
	message string
	initial string
	reply   chan promptReply
}

// promptMsg carries a pending dialog into the Model.
type promptMsg struct {
	req *promptRequest
}

// Prompter hands dialogs from an operation goroutine to the Model and
// blocks until the Model answers them.
type Prompter struct {
	requests  chan *promptRequest
	done      chan struct{}
	closeOnce sync.Once
}

func NewPrompter() *Prompter {
	return &Prompter{
		requests: make(chan *promptRequest),
		done:     make(chan struct{}),
	}
}

func (p *Prompter) AskText(ctx context.Context, title, prompt, initial string) (string, bool, error) {
	reply, err := p.ask(ctx, &promptRequest{kind: promptText, title: title, message: prompt, initial: initial})
	if err != nil {
		return "", false, err
	}
	return reply.value, reply.ok, nil
}

func (p *Prompter) Confirm(ctx context.Context, title, question string) (bool, error) {
	reply, err := p.ask(ctx, &promptRequest{kind: promptConfirm, title: title, message: question})
	if err != nil {
		return false, err
	}
	return reply.ok, nil
}

func (p *Prompter) Warn(ctx context.Context, title, message string) error {
	_, err := p.ask(ctx, &promptRequest{kind: promptWarn, title: title, message: message})
	return err
}

func (p *Prompter) Info(ctx context.Context, title, message string) error {
	_, err := p.ask(ctx, &promptRequest{kind: promptInfo, title: title, message: message})
	return err
}

// Close unblocks every pending and future call with ErrPrompterClosed.
func (p *Prompter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

func (p *Prompter) ask(ctx context.Context, req *promptRequest) (promptReply, error) {
	req.reply = make(chan promptReply, 1)

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return promptReply{}, ctx.Err()
	case <-p.done:
		return promptReply{}, ErrPrompterClosed
	}

	select {
	case reply := <-req.reply:
		return reply, nil
	case <-ctx.Done():
		return promptReply{}, ctx.Err()
	case <-p.done:
		return promptReply{}, ErrPrompterClosed
	}
}

// waitForPrompt yields the next dialog request, or nil once closed.
func (p *Prompter) waitForPrompt() tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-p.requests:
			return promptMsg{req: req}
		case <-p.done:
			return nil
		}
	}
}
