package ai

import "sync"

// Generation identifies one request within a conversation key. Writes made
// with a generation older than the key's latest are rejected.
type Generation struct {
	key string
	seq uint64
}

// Key returns the conversation key the generation belongs to.
func (g Generation) Key() string {
	return g.key
}

// ConversationStore owns the task threads and the active response. It is
// safe for concurrent use; create one per process or per test.
type ConversationStore struct {
	mu          sync.Mutex
	threads     map[string]*TaskConversation
	generations map[string]uint64
	active      *AIResponse
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		threads:     make(map[string]*TaskConversation),
		generations: make(map[string]uint64),
	}
}

// Begin starts a new request for key, superseding any request in flight
// for the same key.
func (s *ConversationStore) Begin(key string) Generation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[key]++
	return Generation{key: key, seq: s.generations[key]}
}

// IsCurrent reports whether g is still the latest request for its key.
func (s *ConversationStore) IsCurrent(g Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isCurrentLocked(g)
}

func (s *ConversationStore) isCurrentLocked(g Generation) bool {
	return s.generations[g.key] == g.seq
}

// SetActive makes resp the active response unless g was superseded.
func (s *ConversationStore) SetActive(g Generation, resp AIResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(g) {
		return ErrStaleResponse
	}
	s.active = &resp
	return nil
}

// Active returns the response currently shown to the user, if any.
func (s *ConversationStore) Active() (AIResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return AIResponse{}, false
	}
	return *s.active, true
}

// ClearActive drops the active response. Task threads are kept.
func (s *ConversationStore) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
}

// RecordResponse appends resp to the thread of taskID, creating the thread
// on first use. parentTaskTitle is only taken from the first call.
func (s *ConversationStore) RecordResponse(resp AIResponse, taskID, parentTaskTitle, taskTitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(resp, taskID, parentTaskTitle, taskTitle)
}

// RecordCurrent is RecordResponse guarded by g.
func (s *ConversationStore) RecordCurrent(g Generation, resp AIResponse, taskID, parentTaskTitle, taskTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(g) {
		return ErrStaleResponse
	}
	s.appendLocked(resp, taskID, parentTaskTitle, taskTitle)
	return nil
}

func (s *ConversationStore) appendLocked(resp AIResponse, taskID, parentTaskTitle, taskTitle string) {
	thread, ok := s.threads[taskID]
	if !ok {
		thread = &TaskConversation{
			TaskID:          taskID,
			ParentTaskTitle: parentTaskTitle,
		}
		s.threads[taskID] = thread
	}
	thread.Responses = append(thread.Responses, TaskResponse{
		AIResponse: resp,
		TaskTitle:  taskTitle,
	})
}

// TaskConversation returns a copy of the thread for taskID, or nil.
func (s *ConversationStore) TaskConversation(taskID string) *TaskConversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[taskID]
	if !ok {
		return nil
	}

	out := *thread
	out.Responses = make([]TaskResponse, len(thread.Responses))
	copy(out.Responses, thread.Responses)
	return &out
}

// TaskIDs returns the IDs of all tasks with a thread.
func (s *ConversationStore) TaskIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids
}

// RemoveTask deletes the thread for taskID and reports whether it existed.
func (s *ConversationStore) RemoveTask(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.threads[taskID]
	delete(s.threads, taskID)
	return ok
}
