package domain

import "fmt"

// Action is an operation guarded by the rule engine.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AllActions lists every guarded action.
var AllActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// ParseAction converts a string to an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID        string
	SessionID string
	// User is the identity record without its password hash.
	User Record
}

// Value returns the identity record as seen by rule expressions,
// always carrying _id.
func (p *Principal) Value() Record {
	if p == nil {
		return nil
	}
	out := p.User.Clone()
	if out == nil {
		out = Record{}
	}
	out[FieldID] = p.ID
	delete(out, FieldHashedPassword)
	return out
}
