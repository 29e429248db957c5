package post

import "strings"

// State is the lifecycle stage of a post. The set of states is closed.
type State uint8

const (
	Draft State = iota
	PendingReview
	Published
)

var stateNames = [...]string{
	Draft:         "draft",
	PendingReview: "pending_review",
	Published:     "published",
}

// String returns the wire/storage name of the state.
func (s State) String() string {
	if !s.IsValid() {
		return "unknown"
	}
	return stateNames[s]
}

// IsValid reports whether s is one of the known states.
func (s State) IsValid() bool {
	return s <= Published
}

// ParseState maps a stored or user supplied name back to a State.
// The second return value is false for unknown names.
func ParseState(name string) (State, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, v := range stateNames {
		if v == n {
			return State(i), true
		}
	}
	return Draft, false
}

// MarshalText lets State travel as its name in JSON and BSON string fields.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText falls back to Draft for names it does not know.
func (s *State) UnmarshalText(b []byte) error {
	st, _ := ParseState(string(b))
	*s = st
	return nil
}

// Action names a lifecycle operation that can move a post between states.
type Action string

const (
	ActionRequestReview Action = "request_review"
	ActionApprove       Action = "approve"
)

// transitions[state][action] is the next state. Every cell is filled so no
// action can leave a post without a state.
var transitions = [...]map[Action]State{
	Draft: {
		ActionRequestReview: PendingReview,
		ActionApprove:       Draft,
	},
	PendingReview: {
		ActionRequestReview: PendingReview,
		ActionApprove:       Published,
	},
	Published: {
		ActionRequestReview: Published,
		ActionApprove:       Published,
	},
}

// Next returns the state reached by applying action in state s. Unknown
// actions leave the state unchanged.
func (s State) Next(action Action) State {
	if !s.IsValid() {
		return s
	}
	if to, ok := transitions[s][action]; ok {
		return to
	}
	return s
}

// ParseAction validates an action name.
func ParseAction(name string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(name))); a {
	case ActionRequestReview, ActionApprove:
		return a, true
	}
	return "", false
}
