package service

import "time"

type Option func(*TaskService)

// WithClock replaces time.Now, used for the elapsed days computation.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}
