// Package expr parses and evaluates the boolean rule expressions of a rule
// set, such as
//
//	isOwner(user, get('teams', data.teamId)) || isOwner(user, data)
//	newData.status = 'pending'
//
// Expressions see three variables (user, data, newData) and two built-in
// functions (get, isOwner). Anything else is rejected at parse time.
package expr

import (
	"fmt"
)

// Variable names visible to expressions.
const (
	VarUser    = "user"
	VarData    = "data"
	VarNewData = "newData"
)

// Built-in function names.
const (
	FuncGet     = "get"
	FuncIsOwner = "isOwner"
)

var variables = map[string]bool{VarUser: true, VarData: true, VarNewData: true}

var functions = map[string]int{FuncGet: 2, FuncIsOwner: 2}

// SyntaxError reports an expression that cannot be parsed.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expr: %s at offset %d in %q", e.Msg, e.Pos, e.Source)
}

// Parse parses a rule expression.
func Parse(src string) (Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, &SyntaxError{Source: src, Msg: err.Error()}
	}
	p := &parser{src: src, toks: toks}

	n, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) expectOp(text string) error {
	if !p.isOp(text) {
		t := p.peek()
		return p.errorf(t, "expected %q", text)
	}
	p.next()
	return nil
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Source: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// parseStatement is an assignment to a newData field or a plain expression.
func (p *parser) parseStatement() (Node, error) {
	start := p.pos
	if t := p.peek(); t.kind == tokIdent && t.text == VarNewData {
		p.next()
		var path []string
		for p.isOp(".") {
			p.next()
			f := p.next()
			if f.kind != tokIdent {
				return nil, p.errorf(f, "expected field name")
			}
			path = append(path, f.text)
		}
		if len(path) > 0 && p.isOp("=") {
			p.next()
			value, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			return Assign{Path: path, Value: value}, nil
		}
		p.pos = start
	}
	return p.parseOr()
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBinary([]string{"||"}, p.parseAnd)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBinary([]string{"&&"}, p.parseEquality)
}

func (p *parser) parseEquality() (Node, error) {
	return p.parseBinary([]string{"===", "!==", "==", "!="}, p.parseRelational)
}

func (p *parser) parseRelational() (Node, error) {
	return p.parseBinary([]string{"<=", ">=", "<", ">"}, p.parseUnary)
}

func (p *parser) parseBinary(ops []string, operand func() (Node, error)) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchAny(ops)
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) matchAny(ops []string) (string, bool) {
	for _, op := range ops {
		if p.isOp(op) {
			p.next()
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("!") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: "!", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp(".") {
		p.next()
		f := p.next()
		if f.kind != tokIdent {
			return nil, p.errorf(f, "expected field name")
		}
		n = Member{Object: n, Field: f.text}
	}
	return n, nil
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return Literal{Value: t.text}, nil
	case tokNumber:
		return Literal{Value: t.num}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return Literal{Value: true}, nil
		case "false":
			return Literal{Value: false}, nil
		case "null", "undefined":
			return Literal{Value: nil}, nil
		}
		if arity, ok := functions[t.text]; ok {
			return p.parseCall(t, arity)
		}
		if !variables[t.text] {
			return nil, p.errorf(t, "unknown identifier %q", t.text)
		}
		return Ident{Name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			n, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, p.errorf(t, "unexpected %q", t.text)
	default:
		return nil, p.errorf(t, "unexpected end of expression")
	}
}

func (p *parser) parseCall(name token, arity int) (Node, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var args []Node
	if !p.isOp(")") {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.isOp(",") {
				break
			}
			p.next()
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if len(args) != arity {
		return nil, p.errorf(name, "%s takes %d arguments, got %d", name.text, arity, len(args))
	}
	return Call{Func: name.text, Args: args}, nil
}
