package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/ai"
	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/theme"
)

// sessionStore is what a session needs beyond the engine.
type sessionStore interface {
	FindOrCreateChat(ctx context.Context, userID, email string) (string, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
}

// taskScope routes input to a task thread. parent is the open task's
// title and becomes the thread's parent title.
type taskScope struct {
	id     string
	parent string
}

// session is one interactive conversation with the assistant.
type session struct {
	engine   *ai.Engine
	executor *executor
	store    sessionStore
	logger   zerolog.Logger
	userID   string
	dryRun   bool

	history *ai.History
	out     io.Writer

	chatID  string
	contact *model.Contact
	task    *taskScope
}

func newSession(a *app, out io.Writer, dryRun bool) *session {
	return &session{
		engine:   a.engine,
		executor: a.executor,
		store:    a.store,
		logger:   a.logger,
		userID:   a.cfg.UserID,
		dryRun:   dryRun,
		history:  ai.NewHistory(nil),
		out:      out,
	}
}

const sessionHelp = `Commands:
  /chat <email>    talk in the context of the chat with <email> (no argument clears)
  /task <id>       scope input to a task thread (no argument clears)
  /thread          show the current task thread
  /reset           forget the conversation
  /quit            leave`

// run reads lines from in until EOF, /quit or ctx is done.
func (s *session) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(s.out, theme.HelpStyle.Render("Type a request, or /help."))

	for {
		fmt.Fprint(s.out, theme.RoleStyle("user").Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		quit, err := s.handle(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// handle processes one input line.
func (s *session) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, "/") {
		s.ask(ctx, line)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, theme.HelpStyle.Render(sessionHelp))
	case "/reset":
		s.history.Reset()
		s.engine.ClearActiveResponse()
		fmt.Fprintln(s.out, theme.HelpStyle.Render("Conversation cleared."))
	case "/chat":
		s.openChat(ctx, arg)
	case "/task":
		s.openTask(ctx, arg)
	case "/thread":
		s.showThread()
	default:
		s.printError(fmt.Sprintf("Unknown command %s. Type /help.", cmd))
	}
	return false, nil
}

func (s *session) openChat(ctx context.Context, addr string) {
	if addr == "" {
		s.chatID, s.contact = "", nil
		fmt.Fprintln(s.out, theme.HelpStyle.Render("No chat open."))
		return
	}

	id, err := s.store.FindOrCreateChat(ctx, s.userID, addr)
	if err != nil {
		s.logger.Error().Err(err).Str("email", addr).Msg("opening chat")
		s.printError("Could not open that chat.")
		return
	}
	s.chatID = id
	s.contact = &model.Contact{Email: strings.ToLower(addr)}
	fmt.Fprintln(s.out, theme.HelpStyle.Render("Chat with "+addr+" open."))
}

func (s *session) openTask(ctx context.Context, id string) {
	if id == "" {
		s.task = nil
		fmt.Fprintln(s.out, theme.HelpStyle.Render("No task selected."))
		return
	}

	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		s.printError("No task with ID " + id + ".")
		return
	}
	s.task = &taskScope{id: task.ID, parent: task.Title}
	fmt.Fprintln(s.out, theme.HelpStyle.Render("Talking about task "+task.Title+"."))
}

func (s *session) showThread() {
	if s.task == nil {
		s.printError("Select a task with /task first.")
		return
	}

	thread := s.engine.GetTaskConversation(s.task.id)
	fmt.Fprintln(s.out, theme.HeaderStyle.Render(s.task.parent))
	if thread == nil || len(thread.Responses) == 0 {
		fmt.Fprintln(s.out, theme.HelpStyle.Render("No responses yet."))
		return
	}
	for _, r := range thread.Responses {
		s.printResponse(r.AIResponse)
	}
}

func (s *session) ask(ctx context.Context, utterance string) {
	prior := s.history.Messages()
	s.history.Append(ai.RoleUser, utterance)

	var opts []ai.InputOption
	if s.chatID != "" {
		opts = append(opts, ai.WithCurrentChat(s.chatID))
	}
	if s.contact != nil {
		opts = append(opts, ai.WithCurrentContact(*s.contact))
	}

	var resp *ai.AIResponse
	var err error
	if s.task != nil {
		resp, err = s.engine.ProcessTaskInput(ctx, s.userID, s.task.id, s.task.parent, "", utterance, prior, opts...)
	} else {
		resp, err = s.engine.ProcessInput(ctx, s.userID, utterance, prior, opts...)
	}

	switch {
	case errors.Is(err, ai.ErrStaleResponse):
		return
	case err != nil:
		s.logger.Debug().Err(err).Msg("assistant request failed")
		if resp != nil && resp.Text != "" {
			s.history.Append(ai.RoleAssistant, resp.Text)
			fmt.Fprintln(s.out, theme.Speaker("assistant", resp.Text))
		}
		s.printError(ai.UserMessage(err))
		return
	}

	if resp.HasAction() && !s.dryRun {
		if err := s.executor.Apply(ctx, resp.Action); err != nil {
			s.logger.Error().Err(err).Str("action", string(resp.Action.Kind())).Msg("applying action")
			if resp.Text != "" {
				fmt.Fprintln(s.out, theme.Speaker("assistant", resp.Text))
			}
			s.printError(actionFailure(err))
			if resp.Text != "" {
				s.history.Append(ai.RoleAssistant, resp.Text)
			}
			return
		}
	}

	s.history.AppendResponse(*resp)
	s.printResponse(*resp)
}

func (s *session) printResponse(resp ai.AIResponse) {
	if resp.Text != "" {
		fmt.Fprintln(s.out, theme.Speaker("assistant", resp.Text))
	}
	if resp.HasAction() && s.dryRun {
		fmt.Fprintln(s.out, theme.HelpStyle.Render("Dry run, not applied. Proposed:"))
	}
	if resp.Confirmation != "" {
		fmt.Fprintln(s.out, theme.ConfirmationStyle.Render(resp.Confirmation))
	}
}

func (s *session) printError(msg string) {
	fmt.Fprintln(s.out, theme.ErrorStyle.Render(msg))
}

func actionFailure(err error) string {
	if errors.Is(err, ai.ErrUnresolvedDestination) {
		return ai.UserMessage(err)
	}
	return "I couldn't complete that action. Please try again."
}
