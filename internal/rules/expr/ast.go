package expr

// Node is a parsed rule expression.
//
// This is a sealed interface: only types in this package implement it, so
// the evaluator's type switch is exhaustive.
type Node interface {
	node()
}

// Literal is a string, number, boolean or null constant.
type Literal struct {
	Value any
}

// Ident is a reference to one of the evaluation variables.
type Ident struct {
	Name string
}

// Member is field access: Object.Field.
type Member struct {
	Object Node
	Field  string
}

// Call invokes a built-in function.
type Call struct {
	Func string
	Args []Node
}

// Unary is logical negation.
type Unary struct {
	Op      string
	Operand Node
}

// Binary is a comparison or a short-circuit connective.
type Binary struct {
	Op          string
	Left, Right Node
}

// Assign sets a field of newData: newData.Path... = Value.
type Assign struct {
	Path  []string
	Value Node
}

func (Literal) node() {}
func (Ident) node()   {}
func (Member) node()  {}
func (Call) node()    {}
func (Unary) node()   {}
func (Binary) node()  {}
func (Assign) node()  {}
