package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatwidget/core/attachment"
	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/core/conversation"
	"github.com/leofalp/chatwidget/core/reveal"
	"github.com/leofalp/chatwidget/providers/ai"
)

const chatHelp = `Commands:
  /attach <path>  attach an image to the next message
  /history        print the conversation so far
  /reset          clear the conversation
  /quit           leave
An empty line sends pending attachments without text.`

func newChatCmd(root *rootOptions) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			if session == "" {
				session = "terminal"
			}
			backend, err := a.backend(ctx, session)
			if err != nil {
				return err
			}
			store := conversation.New(backend,
				conversation.WithMaxTurns(a.cfg.MaxTurns),
				conversation.WithSystemPrompt(a.cfg.SystemPrompt),
			)
			c, err := client.New(store, a.provider,
				client.WithFormatter(a.formatter),
				client.WithModel(a.cfg.Model),
				client.WithObserver(a.observer),
				client.WithMiddleware(a.middlewares...),
			)
			if err != nil {
				return err
			}

			r := &repl{
				client:   c,
				loader:   a.loader,
				revealer: a.revealer,
				in:       cmd.InOrStdin(),
				out:      cmd.OutOrStdout(),
			}
			return r.run(ctx, a.cfg.Greeting)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "history session id, reused across runs with a database (default \"terminal\")")
	return cmd
}

// repl is the terminal chat loop.
type repl struct {
	client   *client.Client
	loader   *attachment.Loader
	revealer *reveal.Revealer
	in       io.Reader
	out      io.Writer

	pending []attachment.Attachment
}

func (r *repl) run(ctx context.Context, greeting string) error {
	r.show(ctx, greeting)
	fmt.Fprintln(r.out, "Type /help for commands.")

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		if line == "" && len(r.pending) == 0 {
			continue
		}
		r.send(ctx, line)
	}
}

// command handles a slash command and reports whether to leave the loop.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/attach":
		if arg == "" {
			fmt.Fprintln(r.out, "usage: /attach <path>")
			return false
		}
		a, err := r.loader.LoadFile(arg)
		if err != nil {
			fmt.Fprintf(r.out, "cannot attach: %v\n", err)
			return false
		}
		r.pending = append(r.pending, a)
		fmt.Fprintf(r.out, "attached %s (%s, %d bytes)\n", a.Name, a.MimeType, a.Size)
	case "/reset":
		r.pending = nil
		if err := r.client.Store().Reset(ctx); err != nil {
			fmt.Fprintf(r.out, "reset failed: %v\n", err)
			return false
		}
		fmt.Fprintln(r.out, "conversation cleared")
	case "/history":
		turns, err := r.client.Store().Turns(ctx)
		if err != nil {
			fmt.Fprintf(r.out, "history unavailable: %v\n", err)
			return false
		}
		for _, turn := range turns {
			r.printTurn(turn)
		}
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", name)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	attachments := r.pending
	r.pending = nil

	reply, err := r.client.Submit(ctx, text, attachments)
	var perr *ai.ProviderError
	switch {
	case err == nil:
		r.show(ctx, reply.Display.Text())
	case errors.As(err, &perr):
		fmt.Fprintln(r.out, client.FallbackMessage)
	default:
		fmt.Fprintf(r.out, "error: %v\n", err)
	}
}

// show reveals text progressively on a single terminal line group.
func (r *repl) show(ctx context.Context, text string) {
	if text == "" {
		return
	}
	shown := 0
	reveal.Play(r.revealer.Start(ctx, text), func(frame string) {
		fmt.Fprint(r.out, frame[shown:])
		shown = len(frame)
	})
	if shown < len(text) {
		fmt.Fprint(r.out, text[shown:])
	}
	fmt.Fprintln(r.out)
}

func (r *repl) printTurn(turn ai.Turn) {
	text := turn.Text()
	if n := turn.ImageCount(); n > 0 {
		text = strings.TrimSpace(fmt.Sprintf("[%d image(s)] %s", n, text))
	}
	fmt.Fprintf(r.out, "%s: %s\n", turn.Role, text)
}
