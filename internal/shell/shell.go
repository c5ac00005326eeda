// Package shell implements the interactive command loop.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Exarkun1/pylab4/internal/logging"
	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/services"
)

// Service is the part of the application the command loop drives.
type Service interface {
	Load(ctx context.Context, sheet string) (*models.Table, error)
	Save(ctx context.Context, sheet string) error
	Download(ctx context.Context, in services.DownloadInput) (*models.Table, error)
	Draw(ctx context.Context, columns []string) (string, error)
}

const helpText = `Commands:
  exit                                        quit
  load <sheet>                                load a sheet from the workbook and print it
  save <sheet>                                save the current table into a sheet of the workbook
  download <symbol> <period> <interval> <window>
                                              download quotes for the last <period> sampled at
                                              <interval> and compute the moving average over
                                              <window>, its differential and autocorrelation
  draw <column> [column ...]                  draw the given columns of the current table
  help                                        show this message

Periods are comma-joined <int><unit> tokens, units s m h d w mo y (e.g. 1y,2mo).
`

// Shell reads one command per line and runs it against a Service. A failed
// command prints its error and leaves the current table untouched.
type Shell struct {
	svc    Service
	in     io.Reader
	out    io.Writer
	prompt string
	logger *logging.Logger

	indexColumn string
	location    *time.Location
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt sets the prompt printed before each command.
func WithPrompt(prompt string) Option {
	return func(s *Shell) { s.prompt = prompt }
}

// WithLogger sets the logger used for command logs.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Shell) { s.logger = logger }
}

// WithTableFormat sets the index header and time zone used when printing tables.
func WithTableFormat(indexColumn string, loc *time.Location) Option {
	return func(s *Shell) {
		s.indexColumn = indexColumn
		s.location = loc
	}
}

// New creates a shell reading commands from in and writing output to out.
func New(svc Service, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		svc:    svc,
		in:     in,
		out:    out,
		prompt: "> ",
		logger: logging.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes commands until exit, end of input or ctx is done. It returns
// nil on exit and end of input.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		s.printf("%s", s.prompt)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if s.Execute(ctx, line) {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether it was exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	ctx = logging.WithRequestID(ctx, uuid.NewString())
	ctx = logging.WithCommand(ctx, args[0])
	log := s.logger.WithContext(ctx)

	switch {
	case args[0] == "exit":
		return true
	case args[0] == "load" && len(args) == 2:
		table, err := s.svc.Load(ctx, args[1])
		if err != nil {
			s.fail(log, err)
			return false
		}
		s.printTable(table)
	case args[0] == "save" && len(args) == 2:
		if err := s.svc.Save(ctx, args[1]); err != nil {
			s.fail(log, err)
			return false
		}
		s.printf("saved to sheet %s\n", args[1])
	case args[0] == "download" && len(args) == 5:
		table, err := s.svc.Download(ctx, services.DownloadInput{
			Symbol:   args[1],
			Period:   args[2],
			Interval: args[3],
			Window:   args[4],
		})
		if err != nil {
			s.fail(log, err)
			return false
		}
		s.printf("%s: %d rows [%s]\n", args[1], table.Len(), strings.Join(table.Columns(), " "))
	case args[0] == "draw" && len(args) > 1:
		path, err := s.svc.Draw(ctx, args[1:])
		if err != nil {
			s.fail(log, err)
			return false
		}
		s.printf("chart written to %s\n", path)
	case args[0] == "help" && len(args) == 1:
		s.printf("%s", helpText)
	default:
		log.Debug("Unknown command", "line", line)
		s.printf("unknown command %q, type help for the list of commands\n", line)
	}
	return false
}

func (s *Shell) fail(log *logging.Logger, err error) {
	log.Debug("Command failed", "error", err)
	s.printf("error: %v\n", err)
}

func (s *Shell) printTable(table *models.Table) {
	if err := WriteTable(s.out, table, s.indexColumn, s.location); err != nil {
		s.logger.Warn("Failed to print table", "error", err)
	}
}

func (s *Shell) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
