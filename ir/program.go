// Package ir implements the statement and expression tree that authoring code
// builds and code generators consume.
package ir

import (
	"symjit/report"
	"symjit/types"
)

// FuncID is a handle to a function of a program.
type FuncID uint32

// NoFunc is the invalid function handle.
const NoFunc FuncID = 0

// FuncKind determines how a function is exposed by the device target.
type FuncKind int

// Enumeration of function kinds.
const (
	FuncDevice FuncKind = iota // callable from other functions
	FuncKernel                 // device entry point; must return void
)

// Function is a function of a program.
type Function struct {
	ID     FuncID
	Name   string
	Kind   FuncKind
	Params []types.ID
	Return types.ID

	// Locals are the types of the function's memory slots.
	Locals []types.ID

	// Temps are the types of the function's temporaries.
	Temps []types.ID

	// Body is the root block.  It is nil until the function is defined.
	Body *Block
}

// Defined returns whether the function has a body.
func (fn *Function) Defined() bool {
	return fn.Body != nil
}

// Program is a compilation unit: a set of functions plus the registry of the
// types they reference.  A program is built on a single goroutine.
type Program struct {
	// Types is the registry shared by all functions of the program.
	Types *types.Registry

	// exprs is the expression arena: exprs[id-1] is the node of ExprID id.
	exprs []Expr

	// owners[id-1] is the serial of the definition which created ExprID id.
	// Expressions are only valid inside the definition that created them.
	owners []uint32

	// defs counts definitions started so far.
	defs uint32

	// defining is the function whose body is being built, if any.
	defining *Function

	funcs  []*Function
	byName map[string]FuncID

	frozen bool
}

// NewProgram creates a new program over reg.  A new registry is created if
// reg is nil.
func NewProgram(reg *types.Registry) *Program {
	if reg == nil {
		reg = types.NewRegistry()
	}

	return &Program{Types: reg, byName: make(map[string]FuncID)}
}

// Expr returns the expression node for an expression handle.
func (p *Program) Expr(id ExprID) Expr {
	if !id.IsValid() || int(id) > len(p.exprs) {
		report.ICE("expression handle %d out of range", id)
	}

	return p.exprs[id-1]
}

// TypeOf returns the result type of an expression.
func (p *Program) TypeOf(id ExprID) types.ID {
	return p.Expr(id).Type()
}

// NumExprs returns the number of expressions in the arena.
func (p *Program) NumExprs() int {
	return len(p.exprs)
}

func (p *Program) newExpr(owner uint32, e Expr) ExprID {
	p.exprs = append(p.exprs, e)
	p.owners = append(p.owners, owner)
	return ExprID(len(p.exprs))
}

// Funcs returns the functions of the program in declaration order.
func (p *Program) Funcs() []*Function {
	return p.funcs
}

// Func returns the function for a function handle.
func (p *Program) Func(id FuncID) *Function {
	if id == NoFunc || int(id) > len(p.funcs) {
		report.ICE("function handle %d out of range", id)
	}

	return p.funcs[id-1]
}

// Lookup returns the function with the given name.
func (p *Program) Lookup(name string) (FuncID, bool) {
	id, ok := p.byName[name]
	return id, ok
}

// Frozen returns whether the program has been frozen.
func (p *Program) Frozen() bool {
	return p.frozen
}

// -----------------------------------------------------------------------------

// Declare adds a function signature to the program without a body so that
// functions may call each other before they are defined.
func (p *Program) Declare(name string, kind FuncKind, params []types.ID, ret types.ID) (id FuncID, err error) {
	defer report.CatchErrors(&err)

	return p.declare(name, kind, params, ret), nil
}

func (p *Program) declare(name string, kind FuncKind, params []types.ID, ret types.ID) FuncID {
	if p.frozen {
		panic(report.Raise("cannot declare function %s: program is frozen", name))
	}

	if p.defining != nil {
		panic(report.Raise("cannot declare function %s while defining %s", name, p.defining.Name))
	}

	if name == "" {
		panic(report.Raise("function name must not be empty"))
	}

	if _, ok := p.byName[name]; ok {
		panic(report.Raise("function %s is already declared", name))
	}

	for i, param := range params {
		if !p.Types.Owns(param) {
			panic(report.Raise("function %s: parameter %d has a type from another registry", name, i))
		}

		if p.Types.IsVoid(param) {
			panic(report.Raise("function %s: parameter %d cannot be void", name, i))
		}
	}

	if !p.Types.Owns(ret) {
		panic(report.Raise("function %s: return type is from another registry", name))
	}

	if kind == FuncKernel && !p.Types.IsVoid(ret) {
		panic(report.Raise("kernel %s must return void, not %s", name, p.Types.Repr(ret)))
	}

	fn := &Function{
		ID:     FuncID(len(p.funcs) + 1),
		Name:   name,
		Kind:   kind,
		Params: append([]types.ID(nil), params...),
		Return: ret,
	}

	p.funcs = append(p.funcs, fn)
	p.byName[name] = fn.ID
	return fn.ID
}

// Define builds the body of a declared function by running the authoring
// callback.  Any authoring misuse inside the callback is returned as a
// `*report.BuildError` positioned at the offending call.
func (p *Program) Define(id FuncID, body func(b *Builder)) (err error) {
	defer report.CatchErrors(&err)

	p.define(id, body)
	return nil
}

func (p *Program) define(id FuncID, body func(b *Builder)) {
	if p.frozen {
		panic(report.Raise("cannot define function: program is frozen"))
	}

	if id == NoFunc || int(id) > len(p.funcs) {
		panic(report.Raise("unknown function handle %d", id))
	}

	fn := p.funcs[id-1]
	if fn.Defined() {
		panic(report.Raise("function %s is already defined", fn.Name))
	}

	if p.defining != nil {
		panic(report.Raise("cannot define function %s while defining %s", fn.Name, p.defining.Name))
	}

	// a failed definition leaves the function declared but without slots.
	p.defining = fn
	defer func() {
		p.defining = nil
		if fn.Body == nil {
			fn.Locals, fn.Temps = nil, nil
		}
	}()

	p.defs++
	root := &Block{}
	b := &Builder{prog: p, fn: fn, serial: p.defs, blocks: []*Block{root}}
	body(b)

	if len(b.blocks) != 1 {
		panic(report.Raise("function %s: %d block scopes left open", fn.Name, len(b.blocks)-1))
	}
	b.done = true

	if !p.Types.IsVoid(fn.Return) && !terminates(p, root) {
		panic(report.Raise("function %s: control can reach the end of a function returning %s", fn.Name, p.Types.Repr(fn.Return)))
	}

	fn.Body = root
}

// DefineFunc declares and defines a device function in one step.
func (p *Program) DefineFunc(name string, params []types.ID, ret types.ID, body func(b *Builder)) (id FuncID, err error) {
	return p.defineKind(name, FuncDevice, params, ret, body)
}

// DefineKernel declares and defines a device entry point in one step.
func (p *Program) DefineKernel(name string, params []types.ID, body func(b *Builder)) (id FuncID, err error) {
	return p.defineKind(name, FuncKernel, params, p.Types.Builtin(types.Void), body)
}

func (p *Program) defineKind(name string, kind FuncKind, params []types.ID, ret types.ID, body func(b *Builder)) (id FuncID, err error) {
	defer report.CatchErrors(&err)

	id = p.declare(name, kind, params, ret)
	defer func() {
		if !p.funcs[id-1].Defined() {
			p.undeclare(id)
		}
	}()

	p.define(id, body)
	return id, nil
}

// undeclare removes the most recently declared function.  No function can be
// declared while another is being defined so a failed one-step definition is
// always the last declaration.
func (p *Program) undeclare(id FuncID) {
	if int(id) != len(p.funcs) {
		report.ICE("undeclaring function %d which is not the last declaration", id)
	}

	delete(p.byName, p.funcs[id-1].Name)
	p.funcs = p.funcs[:id-1]
}

// Freeze completes the program: no further functions may be declared or
// defined.  Freezing checks that every declared function has been defined.
// Freezing an already frozen program does nothing.
func (p *Program) Freeze() error {
	if p.frozen {
		return nil
	}

	for _, fn := range p.funcs {
		if !fn.Defined() {
			return &report.BuildError{Message: "function " + fn.Name + " is declared but never defined"}
		}
	}

	p.frozen = true
	return nil
}

// -----------------------------------------------------------------------------

// terminates returns whether control can never fall off the end of block.
func terminates(p *Program, block *Block) bool {
	for _, stmt := range block.Stmts {
		if stmtTerminates(p, stmt) {
			return true
		}
	}

	return false
}

func stmtTerminates(p *Program, stmt Stmt) bool {
	switch v := stmt.(type) {
	case *Return, *ReturnArray, *ReturnClass, *Break, *Continue:
		return true
	case *Block:
		return terminates(p, v)
	case *If:
		return v.Else != nil && terminates(p, v.Then) && terminates(p, v.Else)
	case *While:
		// A loop with a constant true condition only exits through a break.
		if c, ok := p.Expr(v.Cond).(*Const); ok && c.Bits != 0 {
			return !breaks(v.Calc) && !breaks(v.Body)
		}

		return false
	case *Store, *Assign, *Call:
		return false
	default:
		report.ICE("unknown statement %T", stmt)
		return false
	}
}

// breaks returns whether block contains a break targeting the loop it belongs
// to.  Breaks of nested loops are not counted.
func breaks(block *Block) bool {
	for _, stmt := range block.Stmts {
		switch v := stmt.(type) {
		case *Break:
			return true
		case *Block:
			if breaks(v) {
				return true
			}
		case *If:
			if breaks(v.Then) || (v.Else != nil && breaks(v.Else)) {
				return true
			}
		}
	}

	return false
}
