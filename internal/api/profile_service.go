package api

import (
	"fmt"
	"sync"

	"github.com/chatpoc-ai/BuddyUp/internal/chat"
)

// ProfileService holds the self participant and the daily task list.
// The self participant is immutable for the process lifetime; tasks
// only ever flip to done.
type ProfileService struct {
	mu    sync.Mutex
	self  chat.Participant
	tasks []chat.Task
}

// NewProfileService creates a profile service.
func NewProfileService(self chat.Participant, tasks []chat.Task) *ProfileService {
	return &ProfileService{self: self, tasks: append([]chat.Task(nil), tasks...)}
}

// Self returns the current user.
func (s *ProfileService) Self() chat.Participant {
	return s.self
}

// Tasks returns a copy of the daily task list.
func (s *ProfileService) Tasks() []chat.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Task(nil), s.tasks...)
}

// ClaimTask marks a task done. Claiming twice or claiming an unknown
// id is an error.
func (s *ProfileService) ClaimTask(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if s.tasks[i].Done {
			return fmt.Errorf("task %d already claimed", id)
		}
		s.tasks[i].Done = true
		return nil
	}
	return fmt.Errorf("unknown task %d", id)
}
