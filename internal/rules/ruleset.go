// Package rules resolves and enforces access-control rules for the record
// service.
//
// A rule set maps collection names (or "*" for all collections) to a group:
//
//	members:
//	  .update: "isOwner(user, get('teams', data.teamId))"
//	  "*":
//	    status:
//	      .create: "newData.status = 'pending'"
//	  <record id>:
//	    .read: [Owner]
//	    secret:
//	      .read: false
//
// Action keys start with a dot. The "*" key holds field rules; any other key
// is a record id whose group holds action rules and field rules directly.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Wildcard is the rule-set key matching every collection, and the group key
// holding field rules.
const Wildcard = "*"

// ActionRules holds one rule per action.
type ActionRules map[domain.Action]Rule

// Group is the rule group of a collection or a record.
type Group struct {
	Actions ActionRules
	// Fields maps field name to its action rules.
	Fields map[string]ActionRules
	// Records holds record-id sub-groups. Only used on collection groups.
	Records map[string]*Group
}

func newGroup() *Group {
	return &Group{
		Actions: ActionRules{},
		Fields:  map[string]ActionRules{},
		Records: map[string]*Group{},
	}
}

// RuleSet is an immutable, parsed set of rules.
type RuleSet struct {
	global      *Group
	collections map[string]*Group
}

// Default returns the rule set with only the built-in rules: anyone may
// read, any user may create, owners may update and delete.
func Default() *RuleSet {
	rs, _ := Parse(nil)
	return rs
}

// Parse builds a RuleSet from decoded YAML or JSON.
func Parse(raw map[string]any) (*RuleSet, error) {
	rs := &RuleSet{
		global:      newGroup(),
		collections: make(map[string]*Group),
	}
	rs.global.Actions[domain.ActionRead] = Allow()
	rs.global.Actions[domain.ActionCreate] = Roles(RoleUser)
	rs.global.Actions[domain.ActionUpdate] = Roles(RoleOwner)
	rs.global.Actions[domain.ActionDelete] = Roles(RoleOwner)

	for name, v := range raw {
		m, ok := asMap(v)
		if !ok {
			return nil, fmt.Errorf("rules: %q: expected a mapping, got %T", name, v)
		}
		g, err := parseGroup(m, true)
		if err != nil {
			return nil, fmt.Errorf("rules: %q: %w", name, err)
		}
		if name == Wildcard {
			for a, r := range g.Actions {
				rs.global.Actions[a] = override(rs.global.Actions[a], r)
			}
			rs.global.Fields = g.Fields
			continue
		}
		rs.collections[name] = g
	}
	return rs, nil
}

func parseGroup(m map[string]any, collection bool) (*Group, error) {
	g := newGroup()
	for key, v := range m {
		switch {
		case strings.HasPrefix(key, "."):
			a, r, err := parseActionRule(key, v)
			if err != nil {
				return nil, err
			}
			g.Actions[a] = r

		case collection && key == Wildcard:
			fields, ok := asMap(v)
			if !ok {
				return nil, fmt.Errorf("%q: expected a mapping of fields", key)
			}
			for field, fv := range fields {
				ar, err := parseActionRules(fv)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", field, err)
				}
				g.Fields[field] = ar
			}

		case collection:
			sub, ok := asMap(v)
			if !ok {
				return nil, fmt.Errorf("record %q: expected a mapping", key)
			}
			rg, err := parseGroup(sub, false)
			if err != nil {
				return nil, fmt.Errorf("record %q: %w", key, err)
			}
			g.Records[key] = rg

		default:
			ar, err := parseActionRules(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			g.Fields[key] = ar
		}
	}
	return g, nil
}

func parseActionRules(v any) (ActionRules, error) {
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("expected a mapping of action rules, got %T", v)
	}
	out := make(ActionRules, len(m))
	for key, rv := range m {
		if !strings.HasPrefix(key, ".") {
			return nil, fmt.Errorf("%q is not an action key", key)
		}
		a, r, err := parseActionRule(key, rv)
		if err != nil {
			return nil, err
		}
		out[a] = r
	}
	return out, nil
}

func parseActionRule(key string, v any) (domain.Action, Rule, error) {
	a, err := domain.ParseAction(strings.TrimPrefix(key, "."))
	if err != nil {
		return "", Rule{}, err
	}
	r, err := parseRule(v)
	if err != nil {
		return "", Rule{}, fmt.Errorf("%s: %w", key, err)
	}
	return a, r, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := domain.Normalize(v).(type) {
	case map[string]any:
		return t, true
	case domain.Record:
		return t, true
	default:
		return nil, false
	}
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// FieldRule is the effective rule of one field.
type FieldRule struct {
	Field string
	Rule  Rule
}

// Resolution is the effective rule for one action on one collection or
// record.
type Resolution struct {
	Rule Rule
	// Fields is ordered by field name.
	Fields []FieldRule
}

// Resolve layers the rules for action on collection, and on recordID when
// it is non-empty: built-in default, "*" entry, collection entry, record
// entry. Each layer overrides the previous one only with defined rules;
// field rules are layered per field.
func (rs *RuleSet) Resolve(action domain.Action, collection, recordID string) Resolution {
	rule := rs.global.Actions[action]
	fields := make(map[string]Rule)
	layerFields(fields, rs.global.Fields, action)

	if g, ok := rs.collections[collection]; ok {
		rule = override(rule, g.Actions[action])
		layerFields(fields, g.Fields, action)

		if rg, ok := g.Records[recordID]; ok && recordID != "" {
			rule = override(rule, rg.Actions[action])
			layerFields(fields, rg.Fields, action)
		}
	}

	res := Resolution{Rule: rule}
	for f, r := range fields {
		res.Fields = append(res.Fields, FieldRule{Field: f, Rule: r})
	}
	sort.Slice(res.Fields, func(i, j int) bool { return res.Fields[i].Field < res.Fields[j].Field })
	return res
}

func layerFields(dst map[string]Rule, src map[string]ActionRules, action domain.Action) {
	for f, ar := range src {
		if r := ar[action]; r.Defined() {
			dst[f] = r
		}
	}
}

// Collections returns the names of collections with their own rules.
func (rs *RuleSet) Collections() []string {
	names := make([]string, 0, len(rs.collections))
	for n := range rs.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
