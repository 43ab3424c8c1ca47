package task

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Title       *string
	Description *string
	State       *State
}

type ChangeOption func(*Changes)

func WithTitle(title string) ChangeOption {
	return func(c *Changes) {
		c.Title = &title
	}
}

func WithDescription(description string) ChangeOption {
	return func(c *Changes) {
		c.Description = &description
	}
}

func WithState(state State) ChangeOption {
	return func(c *Changes) {
		c.State = &state
	}
}

func NewChanges(options ...ChangeOption) Changes {
	var c Changes
	for _, opt := range options {
		if opt != nil {
			opt(&c)
		}
	}
	return c
}

func (c Changes) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.State == nil
}

// Apply merges the set fields onto t in place.
func (c Changes) Apply(t *Task) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.State != nil {
		t.State = *c.State
	}
}
