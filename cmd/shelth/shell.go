package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/T-Lind/health-frontend/internal/errors"
	"github.com/T-Lind/health-frontend/internal/render"
)

const shellHelp = `Type a message to send it to the assistant. Commands:
  /classify <text>        classify a patient message
  /list                   show classified messages
  /delete <n>             delete classified message n
  /attach <n|latest>      attach a classified message to your next message
  /cancel                 drop the attachment
  /status                 show the attachment
  /history                show the chat
  /refresh                reload the chat from the server
  /clear                  clear the chat
  /search [-k n] <query>  find similar past interactions
  /help                   show this help
  /quit                   leave`

// shellCmd creates the interactive shell command. Unlike one-shot commands,
// the shell keeps one session, so an attachment carries to the next message.
func shellCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive session (attachments persist between messages)",
		Action: func(c *cli.Context) error {
			return runShell(c.Context, e, c.App.Reader, c.App.Writer)
		},
	}
}

// runShell loads the chat transcript, then reads commands from in until EOF
// or /quit. Command errors are printed and the loop continues.
func runShell(ctx context.Context, e *env, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "shelth shell. /help for commands.")
	if _, err := e.ctrl.LoadTranscript(ctx); err != nil {
		fmt.Fprintln(out, "warning: chat history not loaded:", formatError(err))
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxStdinBytes)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := shellLine(ctx, e, line, out)
		if err != nil {
			fmt.Fprintln(out, "error:", formatError(err))
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func shellLine(ctx context.Context, e *env, line string, out io.Writer) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, shellSend(ctx, e, line, out)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, shellHelp)
	case "/classify":
		output, err := e.ctrl.Classify(ctx, rest)
		if err != nil {
			return false, err
		}
		return false, render.Classification(out, output.Index, output.Record)
	case "/list":
		return false, render.Records(out, e.ctrl.Records())
	case "/delete":
		index, err := parseIndex(rest)
		if err != nil {
			return false, err
		}
		output, err := e.ctrl.Delete(ctx, index)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "deleted [%d] %s\n", index, output.Deleted.Label)
		if output.AttachmentCleared {
			fmt.Fprintln(out, "attachment cleared")
		}
	case "/attach":
		var err error
		if rest == "latest" || rest == "" {
			_, err = e.ctrl.AttachLatest()
		} else {
			var index int
			if index, err = parseIndex(rest); err == nil {
				_, err = e.ctrl.Attach(index)
			}
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, render.Pending(e.ctrl.Pending()))
	case "/cancel":
		e.ctrl.Cancel()
		fmt.Fprintln(out, render.Pending(e.ctrl.Pending()))
	case "/status":
		fmt.Fprintln(out, render.Pending(e.ctrl.Pending()))
	case "/history":
		return false, render.Transcript(out, e.ctrl.Transcript())
	case "/refresh":
		turns, err := e.ctrl.LoadTranscript(ctx)
		if err != nil {
			return false, err
		}
		return false, render.Transcript(out, turns)
	case "/clear":
		if err := e.ctrl.ClearTranscript(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "chat cleared")
	case "/search":
		k, query, err := parseSearchArgs(rest, e.cfg.DefaultSearchResults)
		if err != nil {
			return false, err
		}
		hits, err := e.ctrl.Search(ctx, query, k)
		if err != nil {
			return false, err
		}
		return false, render.Hits(out, hits)
	default:
		return false, errors.NewValidation(fmt.Sprintf("unknown command %s (try /help)", cmd))
	}
	return false, nil
}

func shellSend(ctx context.Context, e *env, text string, out io.Writer) error {
	output, err := e.ctrl.Send(ctx, text)
	if err != nil {
		return err
	}
	if output.Attached != nil {
		fmt.Fprintf(out, "(sent with %s message)\n", output.Attached.Label)
	}
	fmt.Fprintf(out, "assistant: %s\n", output.Reply)
	return nil
}

// parseSearchArgs splits an optional leading "-k n" from the query.
func parseSearchArgs(s string, defaultK int) (int, string, error) {
	fields := strings.Fields(s)
	if len(fields) >= 2 && fields[0] == "-k" {
		k, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, "", errors.NewValidation(fmt.Sprintf("-k must be a number, got %q", fields[1]))
		}
		return k, strings.Join(fields[2:], " "), nil
	}
	return defaultK, s, nil
}
