package rules

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/docstore/internal/rules/expr"
)

// Role is a member of a role-list rule.
type Role string

const (
	RoleGuest Role = "Guest"
	RoleUser  Role = "User"
	RoleOwner Role = "Owner"
)

type ruleKind uint8

const (
	kindNone ruleKind = iota
	kindBool
	kindRoles
	kindExpr
)

// Rule is a single action rule: a boolean literal, a role list or an
// expression. The zero Rule is undefined and never overrides another.
type Rule struct {
	kind  ruleKind
	allow bool
	roles []Role
	expr  expr.Node
	src   string
}

// Allow returns a rule that always permits.
func Allow() Rule { return Rule{kind: kindBool, allow: true} }

// Deny returns a rule that never permits.
func Deny() Rule { return Rule{kind: kindBool} }

// Roles returns a role-list rule. An empty list is undefined.
func Roles(roles ...Role) Rule {
	if len(roles) == 0 {
		return Rule{}
	}
	return Rule{kind: kindRoles, roles: roles}
}

// Expr parses an expression rule. A blank source is undefined.
func Expr(src string) (Rule, error) {
	if strings.TrimSpace(src) == "" {
		return Rule{}, nil
	}
	n, err := expr.Parse(src)
	if err != nil {
		return Rule{}, err
	}
	return Rule{kind: kindExpr, expr: n, src: src}, nil
}

// Defined reports whether r overrides a broader rule.
func (r Rule) Defined() bool { return r.kind != kindNone }

func (r Rule) String() string {
	switch r.kind {
	case kindBool:
		return fmt.Sprint(r.allow)
	case kindRoles:
		return fmt.Sprint(r.roles)
	case kindExpr:
		return r.src
	default:
		return "undefined"
	}
}

// override returns next when it is defined and cur otherwise.
func override(cur, next Rule) Rule {
	if next.Defined() {
		return next
	}
	return cur
}

// parseRule converts a decoded rule value.
func parseRule(v any) (Rule, error) {
	switch t := v.(type) {
	case nil:
		return Rule{}, nil
	case bool:
		if t {
			return Allow(), nil
		}
		return Deny(), nil
	case string:
		return Expr(t)
	case []any:
		roles := make([]Role, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Rule{}, fmt.Errorf("role list entry %v is not a string", item)
			}
			switch r := Role(s); r {
			case RoleGuest, RoleUser, RoleOwner:
				roles = append(roles, r)
			default:
				return Rule{}, fmt.Errorf("unknown role %q", s)
			}
		}
		return Roles(roles...), nil
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return parseRule(items)
	default:
		return Rule{}, fmt.Errorf("unsupported rule value %T", v)
	}
}
