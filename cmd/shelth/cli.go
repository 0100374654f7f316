package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/T-Lind/health-frontend/internal/config"
	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/model"
	"github.com/T-Lind/health-frontend/internal/render"
	"github.com/T-Lind/health-frontend/internal/session"
)

// maxStdinBytes caps message text read from stdin.
const maxStdinBytes = 1 << 20

// env is what the commands act on. It is nil for --help and --version.
type env struct {
	ctrl *session.Controller
	cfg  *config.Config
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "shelth",
		Usage:   "Classify patient messages and consult the clinical assistant",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "Debug logging on stderr"},
		},
		Commands: []*cli.Command{
			classifyCmd(e),
			historyCmd(e),
			deleteCmd(e),
			chatCmd(e),
			searchCmd(e),
			shellCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// classifyCmd creates the classify command.
func classifyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify a patient message and add it to the history (text from args or stdin)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}

			output, err := e.ctrl.Classify(c.Context, text)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List classified messages, oldest first",
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, model.Entries(e.ctrl.Records()))
		},
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Delete every classified message",
				Action: func(c *cli.Context) error {
					output, err := e.ctrl.ClearRecords(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, output)
				},
			},
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a classified message by index",
		ArgsUsage: "<index>",
		Action: func(c *cli.Context) error {
			index, err := parseIndex(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			output, err := e.ctrl.Delete(c.Context, index)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// chatCmd creates the chat command group.
func chatCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the clinical assistant",
		Subcommands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Send a message (text from args or stdin)",
				ArgsUsage: "[message]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "attach", Aliases: []string{"a"}, Value: -1, Usage: "Attach the classified message at this index"},
					&cli.BoolFlag{Name: "attach-latest", Usage: "Attach the most recent classified message"},
				},
				Action: func(c *cli.Context) error {
					text, err := textArg(c)
					if err != nil {
						return outputError(err)
					}

					switch {
					case c.IsSet("attach") && c.Bool("attach-latest"):
						return outputError(errors.NewValidation("use --attach or --attach-latest, not both"))
					case c.Bool("attach-latest"):
						_, err = e.ctrl.AttachLatest()
					case c.IsSet("attach"):
						_, err = e.ctrl.Attach(c.Int("attach"))
					}
					if err != nil {
						return outputError(err)
					}

					output, err := e.ctrl.Send(c.Context, text)
					if err != nil {
						return outputError(err)
					}

					return outputJSON(c.App.Writer, output)
				},
			},
			{
				Name:  "history",
				Usage: "Show the chat transcript",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "html", Usage: "Render each turn as HTML"},
				},
				Action: func(c *cli.Context) error {
					turns, err := e.ctrl.LoadTranscript(c.Context)
					if err != nil {
						return outputError(err)
					}
					if c.Bool("html") {
						return outputJSON(c.App.Writer, render.TurnsHTML(turns))
					}
					return outputJSON(c.App.Writer, turns)
				},
			},
			{
				Name:  "clear",
				Usage: "Clear the chat transcript on the server",
				Action: func(c *cli.Context) error {
					if err := e.ctrl.ClearTranscript(c.Context); err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, map[string]bool{"cleared": true})
				},
			},
		},
	}
}

// searchCmd creates the search command.
func searchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find past interactions similar to a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "results", Aliases: []string{"k"}, Usage: "Number of results, 1-10 (default from config)"},
		},
		Action: func(c *cli.Context) error {
			k := e.cfg.DefaultSearchResults
			if c.IsSet("results") {
				k = c.Int("results")
			}

			hits, err := e.ctrl.Search(c.Context, strings.Join(c.Args().Slice(), " "), k)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, hits)
		},
	}
}

// Helper functions

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(formatError(err), 1)
}

func formatError(err error) string {
	var sErr *errors.ShelthError
	if stderrors.As(err, &sErr) {
		return fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message)
	}
	return err.Error()
}

// textArg joins the positional args, or reads stdin when there are none.
func textArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewValidation("text is required (as arguments or piped via stdin)")
	}
	return readStdin(maxStdinBytes)
}

// parseIndex parses a record index argument.
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, errors.NewValidation("index is required")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.NewValidation(fmt.Sprintf("index must be a number, got %q", s))
	}
	return n, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads up to limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewValidation(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}
