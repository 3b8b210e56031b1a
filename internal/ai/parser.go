package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

// destinationPattern pulls the recipient from inputs such as
// "send a message to alice@example.com saying hi".
var destinationPattern = regexp.MustCompile(`(?i)send.*message.*to\s+(\S+@\S+)`)

// localDateTimeLayouts are tried, in order, for date-times without an offset.
var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInput carries the per-call state the parser needs besides the call.
type ParseInput struct {
	UserID        string
	Utterance     string
	CurrentChatID string
}

// Parser turns a raw function call into a typed AIAction.
type Parser struct {
	resolver ChatResolver
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewParser creates a parser. resolver may be nil, in which case email
// destinations are never resolved.
func NewParser(resolver ChatResolver, loc *time.Location, now func() time.Time, logger zerolog.Logger) *Parser {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{resolver: resolver, loc: loc, now: now, logger: logger}
}

type createTaskArgs struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
}

type sendMessageArgs struct {
	Content string `json:"content"`
	ChatID  string `json:"chatId"`
}

type eventTimeArgs struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type createEventArgs struct {
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	Start       *eventTimeArgs `json:"start"`
	End         *eventTimeArgs `json:"end"`
}

type updateEventArgs struct {
	EventID     string         `json:"eventId"`
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	Start       *eventTimeArgs `json:"start"`
	End         *eventTimeArgs `json:"end"`
}

// Parse validates call and normalizes its arguments. Malformed JSON, an
// unknown function or a missing required field is a *ParseError.
func (p *Parser) Parse(ctx context.Context, call *provider.FunctionCall, in ParseInput) (AIAction, error) {
	if call == nil {
		return nil, newParseError("", "no function call", nil)
	}

	raw := strings.TrimSpace(call.ArgumentsJSON)
	if raw == "" {
		raw = "{}"
	}

	switch ActionKind(call.Name) {
	case ActionCreateTask:
		var args createTaskArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, newParseError(call.Name, "malformed arguments", err)
		}
		return p.parseCreateTask(args)

	case ActionSendMessage:
		var args sendMessageArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, newParseError(call.Name, "malformed arguments", err)
		}
		return p.parseSendMessage(ctx, args, in)

	case ActionCreateEvent:
		var args createEventArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, newParseError(call.Name, "malformed arguments", err)
		}
		return p.parseCreateEvent(args)

	case ActionUpdateEvent:
		var args updateEventArgs
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, newParseError(call.Name, "malformed arguments", err)
		}
		return p.parseUpdateEvent(args)

	default:
		return nil, newParseError(call.Name, "unknown function", nil)
	}
}

func (p *Parser) parseCreateTask(args createTaskArgs) (*CreateTaskAction, error) {
	name := string(ActionCreateTask)

	title := strings.TrimSpace(args.Title)
	if title == "" {
		return nil, newParseError(name, "title is required", nil)
	}

	action := &CreateTaskAction{
		Title:    title,
		Priority: model.PriorityMedium,
	}
	if args.Description != nil {
		action.Description = *args.Description
	}
	if args.Priority != nil && *args.Priority != "" {
		priority := model.Priority(strings.ToLower(*args.Priority))
		if !priority.Valid() {
			return nil, newParseError(name, fmt.Sprintf("invalid priority %q", *args.Priority), nil)
		}
		action.Priority = priority
	}
	if args.DueDate != nil && strings.TrimSpace(*args.DueDate) != "" {
		due, err := parseDateTime(*args.DueDate, p.loc)
		if err != nil {
			return nil, newParseError(name, "invalid dueDate", err)
		}
		action.DueDate = &due
	}

	return action, nil
}

func (p *Parser) parseSendMessage(ctx context.Context, args sendMessageArgs, in ParseInput) (*SendMessageAction, error) {
	if strings.TrimSpace(args.Content) == "" {
		return nil, newParseError(string(ActionSendMessage), "content is required", nil)
	}

	action := &SendMessageAction{
		Content:        args.Content,
		ProposedChatID: args.ChatID,
	}

	if in.CurrentChatID != "" {
		action.ChatID = in.CurrentChatID
		return action, nil
	}

	email, ok := ExtractDestinationEmail(in.Utterance)
	if !ok || p.resolver == nil {
		return action, nil
	}

	chatID, err := p.resolver.FindOrCreateChat(ctx, in.UserID, email)
	if err != nil {
		p.logger.Warn().
			Str("user_id", in.UserID).
			Str("email", email).
			Err(err).
			Msg("resolving message destination")
		return action, nil
	}
	action.ChatID = chatID

	return action, nil
}

func (p *Parser) parseCreateEvent(args createEventArgs) (*CreateEventAction, error) {
	name := string(ActionCreateEvent)

	summary := strings.TrimSpace(args.Summary)
	if summary == "" {
		return nil, newParseError(name, "summary is required", nil)
	}
	if args.Start == nil || strings.TrimSpace(args.Start.DateTime) == "" {
		return nil, newParseError(name, "start.dateTime is required", nil)
	}

	start, err := p.eventTime(*args.Start)
	if err != nil {
		return nil, newParseError(name, "invalid start", err)
	}

	var end EventTime
	if args.End == nil || strings.TrimSpace(args.End.DateTime) == "" {
		end = EventTime{DateTime: start.DateTime.Add(time.Hour), TimeZone: start.TimeZone}
		if args.End != nil {
			if zone := strings.TrimSpace(args.End.TimeZone); zone != "" {
				if _, err := time.LoadLocation(zone); err == nil {
					end.TimeZone = zone
				}
			}
		}
	} else {
		end, err = p.eventTime(*args.End)
		if err != nil {
			return nil, newParseError(name, "invalid end", err)
		}
	}
	if end.DateTime.Before(start.DateTime) {
		return nil, newParseError(name, "end is before start", nil)
	}

	return &CreateEventAction{
		Summary:     summary,
		Description: args.Description,
		Start:       start,
		End:         end,
	}, nil
}

func (p *Parser) parseUpdateEvent(args updateEventArgs) (*UpdateEventAction, error) {
	name := string(ActionUpdateEvent)

	if strings.TrimSpace(args.EventID) == "" {
		return nil, newParseError(name, "eventId is required", nil)
	}

	action := &UpdateEventAction{
		EventID:     args.EventID,
		Summary:     args.Summary,
		Description: args.Description,
	}
	if args.Start != nil && args.Start.DateTime != "" {
		start, err := p.eventTime(*args.Start)
		if err != nil {
			return nil, newParseError(name, "invalid start", err)
		}
		action.Start = &start
	}
	if args.End != nil && args.End.DateTime != "" {
		end, err := p.eventTime(*args.End)
		if err != nil {
			return nil, newParseError(name, "invalid end", err)
		}
		action.End = &end
	}

	return action, nil
}

// eventTime parses an event time, filling a missing zone with the
// parser's location.
func (p *Parser) eventTime(args eventTimeArgs) (EventTime, error) {
	zone := strings.TrimSpace(args.TimeZone)
	loc := p.loc
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err == nil {
			loc = l
		} else {
			p.logger.Warn().
				Str("time_zone", zone).
				Err(err).
				Msg("unknown event time zone, using default")
			zone = ""
		}
	}
	if zone == "" {
		zone = zoneName(p.loc, p.now())
	}

	t, err := parseDateTime(args.DateTime, loc)
	if err != nil {
		return EventTime{}, err
	}
	return EventTime{DateTime: t, TimeZone: zone}, nil
}

// parseDateTime accepts RFC 3339, or a date-time without offset which is
// interpreted in loc.
func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", value)
}

// ExtractDestinationEmail finds the recipient address in an utterance such
// as "send a message to bob@example.com".
func ExtractDestinationEmail(utterance string) (string, bool) {
	m := destinationPattern.FindStringSubmatch(utterance)
	if m == nil {
		return "", false
	}

	candidate := strings.Trim(m[1], "<>\"'()[],;:.!?")
	addr, err := mail.ParseAddress(candidate)
	if err != nil {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}
