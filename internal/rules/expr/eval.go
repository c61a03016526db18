package expr

import (
	"errors"
	"fmt"

	"github.com/heartmarshall/docstore/internal/domain"
)

// Env holds the values an expression is evaluated against.
type Env struct {
	// User is the acting principal, nil when anonymous.
	User domain.Record
	// Data is the stored record the action targets, nil on create and on
	// collection reads.
	Data domain.Record
	// NewData is the write payload. Assignments modify it in place.
	NewData domain.Record
	// Get resolves get(collection, id).
	Get func(collection, id string) (domain.Record, error)
}

// EvalError is a fault raised while evaluating an expression, such as
// reading a field of null or a failing get. It does not unwrap to Err, so
// a NotFound from get never surfaces as a client error.
type EvalError struct {
	Msg string
	Err error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expr: %s: %v", e.Msg, e.Err)
	}
	return "expr: " + e.Msg
}

// IsEvalError reports whether err is an evaluation fault.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}

// Truthy evaluates n and reports whether the result counts as true.
func Truthy(n Node, env Env) (bool, error) {
	v, err := Eval(n, env)
	if err != nil {
		return false, err
	}
	return domain.Truthy(v), nil
}

// IsAssignment reports whether n assigns to newData.
func IsAssignment(n Node) bool {
	_, ok := n.(Assign)
	return ok
}

// Eval evaluates n.
func Eval(n Node, env Env) (any, error) {
	switch n := n.(type) {
	case Literal:
		return n.Value, nil

	case Ident:
		return env.lookup(n.Name), nil

	case Member:
		obj, err := Eval(n.Object, env)
		if err != nil {
			return nil, err
		}
		return field(obj, n.Field)

	case Unary:
		v, err := Eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return !domain.Truthy(v), nil

	case Binary:
		return evalBinary(n, env)

	case Call:
		return evalCall(n, env)

	case Assign:
		return evalAssign(n, env)

	default:
		return nil, &EvalError{Msg: fmt.Sprintf("unsupported node %T", n)}
	}
}

func (env Env) lookup(name string) any {
	var r domain.Record
	switch name {
	case VarUser:
		r = env.User
	case VarData:
		r = env.Data
	case VarNewData:
		r = env.NewData
	}
	if r == nil {
		return nil
	}
	return r
}

func field(obj any, name string) (any, error) {
	if obj == nil {
		return nil, &EvalError{Msg: fmt.Sprintf("cannot read property %q of null", name)}
	}
	if m, ok := asMap(obj); ok {
		return m[name], nil
	}
	return nil, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case domain.Record:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	default:
		return nil, false
	}
}

func evalBinary(n Binary, env Env) (any, error) {
	left, err := Eval(n.Left, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "&&":
		if !domain.Truthy(left) {
			return left, nil
		}
		return Eval(n.Right, env)
	case "||":
		if domain.Truthy(left) {
			return left, nil
		}
		return Eval(n.Right, env)
	}

	right, err := Eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return domain.LooseEqual(left, right), nil
	case "!=":
		return !domain.LooseEqual(left, right), nil
	case "===":
		return domain.StrictEqual(left, right), nil
	case "!==":
		return !domain.StrictEqual(left, right), nil
	}

	cmp, ok := domain.Compare(left, right)
	if !ok {
		return false, nil
	}
	switch n.Op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return nil, &EvalError{Msg: fmt.Sprintf("unsupported operator %q", n.Op)}
	}
}

func evalCall(n Call, env Env) (any, error) {
	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch n.Func {
	case FuncGet:
		if env.Get == nil {
			return nil, &EvalError{Msg: "get is not available"}
		}
		collection, id := domain.Stringify(args[0]), domain.Stringify(args[1])
		rec, err := env.Get(collection, id)
		if err != nil {
			return nil, &EvalError{Msg: fmt.Sprintf("get(%q, %q)", collection, id), Err: err}
		}
		return rec, nil

	case FuncIsOwner:
		if args[0] == nil {
			return false, nil
		}
		userID, err := field(args[0], domain.FieldID)
		if err != nil {
			return nil, err
		}
		ownerID, err := field(args[1], domain.FieldOwnerID)
		if err != nil {
			return nil, err
		}
		return domain.LooseEqual(userID, ownerID), nil

	default:
		return nil, &EvalError{Msg: fmt.Sprintf("unknown function %q", n.Func)}
	}
}

func evalAssign(n Assign, env Env) (any, error) {
	v, err := Eval(n.Value, env)
	if err != nil {
		return nil, err
	}
	if env.NewData == nil {
		return v, nil
	}

	target := map[string]any(env.NewData)
	for _, f := range n.Path[:len(n.Path)-1] {
		next, ok := asMap(target[f])
		if !ok {
			return nil, &EvalError{Msg: fmt.Sprintf("cannot set property of %q", f)}
		}
		target = next
	}
	last := n.Path[len(n.Path)-1]
	if v == nil {
		delete(target, last)
		return nil, nil
	}
	target[last] = domain.CopyValue(v)
	return v, nil
}
