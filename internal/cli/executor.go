package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"boardcheck/internal/formatting"
	"boardcheck/internal/trello"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// BoardAPI is the subset of the board client the executor drives.
type BoardAPI interface {
	Create(ctx context.Context, name string) (*trello.Board, error)
	Get(ctx context.Context, id string) (*trello.Board, error)
	UpdateName(ctx context.Context, id, newName string) (*trello.Board, error)
	Delete(ctx context.Context, id string) error
	StatusCode(ctx context.Context, id string) (int, error)
}

// ExecutorOptions configures how operations are presented.
type ExecutorOptions struct {
	Format formatting.OutputFormat
	Quiet  bool
	// Endpoint is named in connection errors
	Endpoint string
}

// BoardExecutor runs one board operation with a progress spinner and
// writes the formatted result.
type BoardExecutor struct {
	boards    BoardAPI
	options   ExecutorOptions
	formatter formatting.Formatter
	out       io.Writer
	errOut    io.Writer
}

// NewBoardExecutor creates an executor writing results to out and
// progress to errOut.
func NewBoardExecutor(boards BoardAPI, options ExecutorOptions, out, errOut io.Writer) *BoardExecutor {
	return &BoardExecutor{
		boards:    boards,
		options:   options,
		formatter: formatting.New(formatting.Options{Format: options.Format, Quiet: options.Quiet}),
		out:       out,
		errOut:    errOut,
	}
}

// run executes op behind a spinner unless quiet mode is enabled.
func (e *BoardExecutor) run(suffix string, op func() error) error {
	var s *spinner.Spinner
	if !e.options.Quiet {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(e.errOut))
		s.Suffix = " " + suffix
		s.Start()
	}

	err := op()

	if s != nil {
		s.Stop()
	}

	if err != nil {
		if s != nil {
			fmt.Fprintf(e.errOut, "%s\n", text.FgRed.Sprint("❌ Command failed"))
		}
		return ExplainError(err, e.options.Endpoint)
	}
	return nil
}

// Create creates a board. An empty name is replaced by a generated one.
func (e *BoardExecutor) Create(ctx context.Context, name string) error {
	if name == "" {
		name = trello.GenerateBoardName(trello.DefaultBoardPrefix, time.Now())
	}

	var board *trello.Board
	err := e.run("Creating board...", func() (err error) {
		board, err = e.boards.Create(ctx, name)
		return err
	})
	if err != nil {
		return err
	}
	return e.formatter.FormatBoard(e.out, board)
}

// Get fetches and prints a board.
func (e *BoardExecutor) Get(ctx context.Context, id string) error {
	var board *trello.Board
	err := e.run("Fetching board...", func() (err error) {
		board, err = e.boards.Get(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return e.formatter.FormatBoard(e.out, board)
}

// Rename renames a board and prints the server's view of it.
func (e *BoardExecutor) Rename(ctx context.Context, id, newName string) error {
	var board *trello.Board
	err := e.run("Renaming board...", func() (err error) {
		board, err = e.boards.UpdateName(ctx, id, newName)
		return err
	})
	if err != nil {
		return err
	}
	return e.formatter.FormatBoard(e.out, board)
}

// Delete removes a board.
func (e *BoardExecutor) Delete(ctx context.Context, id string) error {
	err := e.run("Deleting board...", func() error {
		return e.boards.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	return e.formatter.FormatMessage(e.out, fmt.Sprintf("Board %s deleted", id))
}

// Status prints the raw HTTP status of reading a board. Any status is a
// successful result; only transport failures are errors.
func (e *BoardExecutor) Status(ctx context.Context, id string) error {
	var status int
	err := e.run("Checking board...", func() (err error) {
		status, err = e.boards.StatusCode(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return e.formatter.FormatStatus(e.out, id, status)
}
