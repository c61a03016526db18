package rules

import (
	"fmt"
	"sync/atomic"

	"github.com/heartmarshall/docstore/internal/domain"
	"github.com/heartmarshall/docstore/internal/rules/expr"
)

// Getter resolves get(collection, id) inside expressions.
type Getter func(collection, id string) (domain.Record, error)

// Request describes one guarded operation.
type Request struct {
	Action     domain.Action
	Collection string
	Principal  *domain.Principal
	// Admin bypasses denying top-level decisions. Field rules still apply.
	Admin bool
	// Data is the stored record the action targets; nil on create and on
	// collection reads.
	Data domain.Record
	// NewData is the write payload. Field rules modify it in place.
	NewData domain.Record
}

// Engine enforces a RuleSet. The set can be swapped while requests are in
// flight; each request sees one set from start to finish.
type Engine struct {
	rules atomic.Pointer[RuleSet]
	get   Getter
}

// NewEngine creates an Engine. A nil rs means Default.
func NewEngine(rs *RuleSet, get Getter) *Engine {
	if rs == nil {
		rs = Default()
	}
	e := &Engine{get: get}
	e.rules.Store(rs)
	return e
}

// Swap replaces the active RuleSet.
func (e *Engine) Swap(rs *RuleSet) {
	e.rules.Store(rs)
}

// RuleSet returns the active RuleSet.
func (e *Engine) RuleSet() *RuleSet {
	return e.rules.Load()
}

// Access is a granted request. It redacts read results with the rule set
// that granted it.
type Access struct {
	engine *Engine
	rules  *RuleSet
	req    Request
}

// Authorize decides req. On success, create and update payloads have
// already been filtered by the field rules.
//
// A denying decision is ErrForbidden; a role list that needs a principal
// when there is none is ErrUnauthorized. A fault while evaluating an
// expression is returned as *expr.EvalError.
func (e *Engine) Authorize(req Request) (*Access, error) {
	rs := e.rules.Load()
	res := rs.Resolve(req.Action, req.Collection, req.Data.ID())

	ok, err := e.decide(res.Rule, req, true)
	if err != nil {
		return nil, err
	}
	if !ok && !req.Admin {
		return nil, fmt.Errorf("rules: %s %q: %w", req.Action, req.Collection, domain.ErrForbidden)
	}

	if req.Action == domain.ActionCreate || req.Action == domain.ActionUpdate {
		if err := e.applyFields(res.Fields, req, req.NewData); err != nil {
			return nil, err
		}
	}

	return &Access{engine: e, rules: rs, req: req}, nil
}

// Redact deletes from rec every field its read rules deny. Record-level
// field rules are looked up by rec's _id.
func (a *Access) Redact(rec domain.Record) error {
	res := a.rules.Resolve(domain.ActionRead, a.req.Collection, rec.ID())
	req := a.req
	req.Action = domain.ActionRead
	req.Data = rec
	req.NewData = nil
	return a.engine.applyFields(res.Fields, req, rec)
}

// RedactAll redacts every record of a collection read.
func (a *Access) RedactAll(records []domain.Record) error {
	for _, r := range records {
		if err := a.Redact(r); err != nil {
			return err
		}
	}
	return nil
}

// applyFields evaluates field rules and deletes every denied field from
// target. Assignments always run and never deny.
func (e *Engine) applyFields(fields []FieldRule, req Request, target domain.Record) error {
	for _, fr := range fields {
		ok, err := e.decide(fr.Rule, req, false)
		if err != nil {
			return fmt.Errorf("rules: field %q: %w", fr.Field, err)
		}
		if !ok && target != nil {
			delete(target, fr.Field)
		}
	}
	return nil
}

// decide evaluates one rule. At the top level a role list without a
// principal is an authorization error; on fields it just denies.
func (e *Engine) decide(r Rule, req Request, topLevel bool) (bool, error) {
	switch r.kind {
	case kindBool:
		return r.allow, nil
	case kindRoles:
		return checkRoles(r.roles, req, topLevel)
	case kindExpr:
		env := expr.Env{
			User:    req.Principal.Value(),
			Data:    req.Data,
			NewData: req.NewData,
			Get:     e.get,
		}
		if expr.IsAssignment(r.expr) {
			_, err := expr.Eval(r.expr, env)
			return true, err
		}
		return expr.Truthy(r.expr, env)
	default:
		return true, nil
	}
}

func checkRoles(roles []Role, req Request, topLevel bool) (bool, error) {
	if hasRole(roles, RoleGuest) {
		return true, nil
	}
	if req.Principal == nil && !req.Admin {
		if topLevel {
			return false, fmt.Errorf("rules: %s %q: %w", req.Action, req.Collection, domain.ErrUnauthorized)
		}
		return false, nil
	}
	if hasRole(roles, RoleUser) {
		return true, nil
	}
	if req.Principal != nil && hasRole(roles, RoleOwner) {
		return req.Data != nil && req.Principal.ID == req.Data.OwnerID(), nil
	}
	return false, nil
}

func hasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
