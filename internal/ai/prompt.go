package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nhle/assistant-engine/internal/model"
	"github.com/nhle/assistant-engine/internal/provider"
)

const (
	maxCompletedTasks   = 5
	currentChatMessages = 5
	maxRecentChats      = 3
	recentChatMessages  = 3
	maxUpcomingEvents   = 5
)

const (
	dueDateLayout       = "January 2, 2006"
	todayEventLayout    = "3:04 PM"
	upcomingEventLayout = "Jan 2, 2006, 3:04 PM"
	messageLayout       = "Jan 2, 3:04 PM"
	nowLayout           = "Monday, January 2, 2006 3:04 PM MST"
)

// Composer renders a RequestContext into a system prompt and prior turns.
// Output is deterministic for a fixed clock and location.
type Composer struct {
	loc *time.Location
	now func() time.Time
}

// NewComposer creates a composer rendering times in loc.
func NewComposer(loc *time.Location, now func() time.Time) *Composer {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Composer{loc: loc, now: now}
}

// Compose returns the system prompt and the history as provider turns.
func (c *Composer) Compose(rc RequestContext) (string, []provider.Turn) {
	return c.SystemPrompt(rc), HistoryTurns(rc.History)
}

// SystemPrompt renders the full system prompt for rc.
func (c *Composer) SystemPrompt(rc RequestContext) string {
	now := c.now().In(c.loc)

	var sb strings.Builder
	sb.WriteString("You are a personal productivity assistant with access to the user's ")
	sb.WriteString("tasks, chat messages, contacts and calendar.\n")
	fmt.Fprintf(&sb, "The current date and time is %s.\n\n", now.Format(nowLayout))

	sb.WriteString("You can:\n")
	sb.WriteString("- Answer questions about the user's tasks, messages, contacts and calendar\n")
	sb.WriteString("- Create a task with create_task\n")
	sb.WriteString("- Send a chat message with send_message\n")
	sb.WriteString("- Create a calendar event with create_event\n\n")

	sb.WriteString("Call a function only when the user asks for one of these actions; ")
	sb.WriteString("otherwise answer in plain text. Request at most one action per reply.\n")
	sb.WriteString("When the user says \"that\", \"it\" or similar, resolve the reference ")
	sb.WriteString("against the previous turns of this conversation.\n")
	fmt.Fprintf(&sb, "Express dates and times in the %s time zone unless the user says otherwise.\n", zoneName(c.loc, now))

	if rc.CurrentChatID != "" {
		fmt.Fprintf(&sb, "The user currently has chat %q open; messages they ask to send go to this chat.\n", rc.CurrentChatID)
	}

	sb.WriteString("\n## Tasks\n")
	sb.WriteString(FormatTasksContext(rc.Tasks, c.loc))
	sb.WriteString("\n\n## Messages\n")
	sb.WriteString(FormatMessagesContext(rc.ChatsByID, rc.CurrentChatID, c.loc))
	sb.WriteString("\n\n## Contacts\n")
	sb.WriteString(FormatContactsContext(rc.Contacts, rc.CurrentContact))
	sb.WriteString("\n\n## Calendar\n")
	sb.WriteString(FormatEventsContext(rc.Events, now, c.loc))

	return sb.String()
}

// HistoryTurns maps conversation history to provider turns in order. Only
// user messages become user turns; every other role is the assistant's.
func HistoryTurns(history []AIMessage) []provider.Turn {
	turns := make([]provider.Turn, 0, len(history))
	for _, msg := range history {
		role := provider.RoleAssistant
		if msg.Role == RoleUser {
			role = provider.RoleUser
		}
		turns = append(turns, provider.Turn{Role: role, Content: msg.Content})
	}
	return turns
}

// FormatTasksContext lists incomplete tasks, then up to five recently
// completed task titles.
func FormatTasksContext(tasks []model.Task, loc *time.Location) string {
	if len(tasks) == 0 {
		return "No tasks available."
	}

	var incomplete, completed []model.Task
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			incomplete = append(incomplete, t)
		}
	}

	var sb strings.Builder
	sb.WriteString("Incomplete Tasks:\n")
	if len(incomplete) == 0 {
		sb.WriteString("None\n")
	}
	for _, t := range incomplete {
		fmt.Fprintf(&sb, "- %s\n", t.Title)
		if t.Description != "" {
			fmt.Fprintf(&sb, "  Description: %s\n", t.Description)
		}
		if t.DueDate != nil {
			fmt.Fprintf(&sb, "  Due: %s\n", t.DueDate.In(loc).Format(dueDateLayout))
		} else {
			sb.WriteString("  Due: No due date\n")
		}
		priority := string(t.Priority)
		if priority == "" {
			priority = "none"
		}
		fmt.Fprintf(&sb, "  Priority: %s\n", priority)
	}

	if len(completed) > 0 {
		sort.SliceStable(completed, func(i, j int) bool {
			return completed[i].RecencyTime().After(completed[j].RecencyTime())
		})
		if len(completed) > maxCompletedTasks {
			completed = completed[:maxCompletedTasks]
		}

		sb.WriteString("\nRecently Completed Tasks:\n")
		for _, t := range completed {
			fmt.Fprintf(&sb, "- %s\n", t.Title)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatMessagesContext renders the current chat's newest messages, then
// a few messages from the most recently active other chats.
func FormatMessagesContext(chats map[string][]model.Message, currentChatID string, loc *time.Location) string {
	var sb strings.Builder

	if current := chats[currentChatID]; currentChatID != "" && len(current) > 0 {
		sb.WriteString("Current Chat Messages:\n")
		for _, m := range newestFirst(current, currentChatMessages) {
			writeMessage(&sb, "- ", m, loc)
		}
	}

	type chatActivity struct {
		id     string
		latest time.Time
	}
	var others []chatActivity
	for id, msgs := range chats {
		if id == currentChatID || len(msgs) == 0 {
			continue
		}
		others = append(others, chatActivity{id: id, latest: newestFirst(msgs, 1)[0].Timestamp})
	}
	sort.Slice(others, func(i, j int) bool {
		if !others[i].latest.Equal(others[j].latest) {
			return others[i].latest.After(others[j].latest)
		}
		return others[i].id < others[j].id
	})
	if len(others) > maxRecentChats {
		others = others[:maxRecentChats]
	}

	if len(others) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Recent Chats:\n")
		for _, chat := range others {
			fmt.Fprintf(&sb, "Chat %s:\n", chat.id)
			for _, m := range newestFirst(chats[chat.id], recentChatMessages) {
				writeMessage(&sb, "  - ", m, loc)
			}
		}
	}

	if sb.Len() == 0 {
		return "No messages available."
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeMessage(sb *strings.Builder, prefix string, m model.Message, loc *time.Location) {
	fmt.Fprintf(sb, "%s[%s] %s: %s\n", prefix, m.Timestamp.In(loc).Format(messageLayout), m.Sender(), m.Content)
}

// newestFirst returns up to limit messages ordered newest first without
// modifying msgs.
func newestFirst(msgs []model.Message, limit int) []model.Message {
	sorted := make([]model.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// FormatContactsContext renders the current contact first, then the full
// contact list.
func FormatContactsContext(contacts []model.Contact, current *model.Contact) string {
	if len(contacts) == 0 && current == nil {
		return "No contacts available."
	}

	var sb strings.Builder
	if current != nil {
		sb.WriteString("Current Contact:\n")
		writeContact(&sb, *current)
		sb.WriteString("\n")
	}

	sb.WriteString("Contacts:\n")
	if len(contacts) == 0 {
		sb.WriteString("No contacts available.\n")
	}
	for _, c := range contacts {
		writeContact(&sb, c)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func writeContact(sb *strings.Builder, c model.Contact) {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	if c.Email != "" && c.Email != name {
		fmt.Fprintf(sb, "- %s <%s>\n", name, c.Email)
		return
	}
	fmt.Fprintf(sb, "- %s\n", name)
}

// FormatEventsContext partitions events into those on the same calendar
// day as now and those on later days, capped at five. An event is never
// listed in both.
func FormatEventsContext(events []model.CalendarEvent, now time.Time, loc *time.Location) string {
	if len(events) == 0 {
		return "No upcoming events."
	}

	now = now.In(loc)
	var today, upcoming []model.CalendarEvent
	for _, e := range events {
		switch {
		case sameDay(e.Start.In(loc), now):
			today = append(today, e)
		case e.Start.After(now):
			upcoming = append(upcoming, e)
		}
	}

	byStart := func(list []model.CalendarEvent) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Start.Before(list[j].Start)
		})
	}
	byStart(today)
	byStart(upcoming)
	if len(upcoming) > maxUpcomingEvents {
		upcoming = upcoming[:maxUpcomingEvents]
	}

	if len(today) == 0 && len(upcoming) == 0 {
		return "No upcoming events."
	}

	var sb strings.Builder
	if len(today) > 0 {
		sb.WriteString("Today's Events:\n")
		for _, e := range today {
			when := "All day"
			if !e.AllDay {
				when = e.Start.In(loc).Format(todayEventLayout)
			}
			fmt.Fprintf(&sb, "- %s: %s\n", when, e.Summary)
		}
	}
	if len(upcoming) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Upcoming Events:\n")
		for _, e := range upcoming {
			when := e.Start.In(loc).Format(upcomingEventLayout)
			if e.AllDay {
				when = e.Start.In(loc).Format("Jan 2, 2006") + " (all day)"
			}
			fmt.Fprintf(&sb, "- %s: %s\n", when, e.Summary)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// zoneName returns the IANA name of loc, or the zone abbreviation in
// effect at t when loc has no usable name, or else the numeric offset.
func zoneName(loc *time.Location, t time.Time) string {
	if name := loc.String(); name != "" && name != "Local" {
		return name
	}
	if abbr, _ := t.In(loc).Zone(); abbr != "" {
		return abbr
	}
	return t.In(loc).Format("-07:00")
}
