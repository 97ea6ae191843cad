package ir

import (
	"symjit/intrinsic"
	"symjit/report"
	"symjit/types"
)

// Builder appends statements to the function being defined.  It maintains a
// stack of open blocks: statements are always appended to the top block.
// Misuse is raised as a `*report.BuildError` at the offending call.
type Builder struct {
	prog *Program
	fn   *Function

	// serial identifies this definition: expressions created by it carry the
	// same serial.
	serial uint32

	// blocks is the stack of open blocks.  blocks[0] is the root block.
	blocks []*Block

	// loopDepth is the number of enclosing loops.
	loopDepth int

	// done is set once the defining callback returns.
	done bool
}

// Program returns the program the builder appends to.
func (b *Builder) Program() *Program {
	return b.prog
}

// Types returns the program's type registry.
func (b *Builder) Types() *types.Registry {
	return b.prog.Types
}

// Func returns the function being defined.
func (b *Builder) Func() *Function {
	return b.fn
}

// TypeOf returns the result type of an expression.
func (b *Builder) TypeOf(e ExprID) types.ID {
	b.checkExpr(e)
	return b.prog.TypeOf(e)
}

func (b *Builder) top() *Block {
	return b.blocks[len(b.blocks)-1]
}

func (b *Builder) emit(s Stmt) {
	b.checkLive()
	b.top().append(s)
}

func (b *Builder) checkLive() {
	if b.done {
		panic(report.Raise("builder for %s used after its definition finished", b.fn.Name))
	}
}

func (b *Builder) checkExpr(e ExprID) {
	if !e.IsValid() || int(e) > len(b.prog.exprs) {
		panic(report.Raise("invalid expression handle %d", e))
	}

	if b.prog.owners[e-1] != b.serial {
		panic(report.Raise("expression %d was not created while defining %s", e, b.fn.Name))
	}
}

func (b *Builder) checkType(t types.ID) {
	if !b.prog.Types.Owns(t) {
		panic(report.Raise("type handle %s is not from this program's registry", t))
	}
}

func (b *Builder) repr(t types.ID) string {
	return b.prog.Types.Repr(t)
}

func (b *Builder) newExpr(e Expr) ExprID {
	b.checkLive()
	return b.prog.newExpr(b.serial, e)
}

// -----------------------------------------------------------------------------

// ConstInt creates an integer or char constant of type t.
func (b *Builder) ConstInt(t types.ID, v int64) ExprID {
	b.checkType(t)
	if !b.prog.Types.IsInteger(t) {
		panic(report.Raise("integer constant of non-integer type %s", b.repr(t)))
	}

	return b.newExpr(&Const{ExprBase: ExprBase{t}, Bits: uint64(v)})
}

// ConstUint creates an unsigned integer constant of type t.
func (b *Builder) ConstUint(t types.ID, v uint64) ExprID {
	b.checkType(t)
	if !b.prog.Types.IsInteger(t) {
		panic(report.Raise("integer constant of non-integer type %s", b.repr(t)))
	}

	return b.newExpr(&Const{ExprBase: ExprBase{t}, Bits: v})
}

// ConstFloat creates a floating-point constant of type t.
func (b *Builder) ConstFloat(t types.ID, v float64) ExprID {
	b.checkType(t)
	if !b.prog.Types.IsFloat(t) {
		panic(report.Raise("float constant of non-float type %s", b.repr(t)))
	}

	if b.prog.Types.Is(t, types.F32) {
		v = float64(float32(v))
	}

	return b.newExpr(&Const{ExprBase: ExprBase{t}, Float: v})
}

// ConstBool creates a bool constant.
func (b *Builder) ConstBool(v bool) ExprID {
	var bits uint64
	if v {
		bits = 1
	}

	return b.newExpr(&Const{ExprBase: ExprBase{b.prog.Types.Builtin(types.Bool)}, Bits: bits})
}

// ConstChar creates a char constant.
func (b *Builder) ConstChar(c byte) ExprID {
	return b.newExpr(&Const{ExprBase: ExprBase{b.prog.Types.Builtin(types.Char)}, Bits: uint64(int64(int8(c)))})
}

// Null creates the null pointer of pointer type t.
func (b *Builder) Null(t types.ID) ExprID {
	b.checkType(t)
	if _, ok := b.prog.Types.IsPointer(t); !ok {
		panic(report.Raise("null constant of non-pointer type %s", b.repr(t)))
	}

	return b.newExpr(&NullPtr{ExprBase{t}})
}

// Param returns the value of parameter i.
func (b *Builder) Param(i int) ExprID {
	if i < 0 || i >= len(b.fn.Params) {
		panic(report.Raise("function %s has no parameter %d", b.fn.Name, i))
	}

	return b.newExpr(&ParamRef{ExprBase: ExprBase{b.fn.Params[i]}, Index: i})
}

// Local allocates a new memory slot of type t and returns its address.
func (b *Builder) Local(t types.ID) ExprID {
	b.checkType(t)
	if b.prog.Types.IsVoid(t) {
		panic(report.Raise("local of type void"))
	}

	b.fn.Locals = append(b.fn.Locals, t)
	return b.newExpr(&LocalAddr{
		ExprBase: ExprBase{b.prog.Types.Pointer(t)},
		Local:    len(b.fn.Locals) - 1,
	})
}

// Temp declares a new temporary of type t and returns its value.  The value
// is undefined until the temporary is bound by `Assign`.
func (b *Builder) Temp(t types.ID) ExprID {
	b.checkType(t)
	if b.prog.Types.IsVoid(t) {
		panic(report.Raise("temporary of type void"))
	}

	b.fn.Temps = append(b.fn.Temps, t)
	return b.newExpr(&TempRef{ExprBase: ExprBase{t}, Temp: len(b.fn.Temps) - 1})
}

// ResultSlot returns the destination of an array or struct returning
// function.
func (b *Builder) ResultSlot() ExprID {
	if !b.prog.Types.IsAggregate(b.fn.Return) {
		panic(report.Raise("function %s returning %s has no result slot", b.fn.Name, b.repr(b.fn.Return)))
	}

	return b.newExpr(&ResultSlot{ExprBase{b.prog.Types.Pointer(b.fn.Return)}})
}

// -----------------------------------------------------------------------------

// pointee returns the pointee type of pointer expression e.
func (b *Builder) pointee(e ExprID, what string) types.ID {
	b.checkExpr(e)
	t := b.prog.TypeOf(e)
	pt, ok := b.prog.Types.IsPointer(t)
	if !ok {
		panic(report.Raise("%s requires a pointer, got %s", what, b.repr(t)))
	}

	return pt
}

// Load reads the pointee of addr.
func (b *Builder) Load(addr ExprID) ExprID {
	pt := b.pointee(addr, "load")
	if b.prog.Types.IsVoid(pt) {
		panic(report.Raise("load through void pointer"))
	}

	return b.newExpr(&Load{ExprBase: ExprBase{pt}, Addr: addr})
}

// Unary creates a unary operation.
func (b *Builder) Unary(op UnaryOp, x ExprID) ExprID {
	b.checkExpr(x)
	reg := b.prog.Types
	t := b.prog.TypeOf(x)

	switch op {
	case OpNeg:
		if !reg.IsArithmetic(t) {
			panic(report.Raise("negation of non-arithmetic type %s", b.repr(t)))
		}
	case OpNot:
		if !reg.IsBool(t) {
			panic(report.Raise("logical not of non-bool type %s", b.repr(t)))
		}
	case OpBitNot:
		if !reg.IsInteger(t) {
			panic(report.Raise("bitwise complement of non-integer type %s", b.repr(t)))
		}
	default:
		panic(report.Raise("unknown unary operator %d", op))
	}

	return b.newExpr(&Unary{ExprBase: ExprBase{t}, Op: op, X: x})
}

// Binary creates a binary operation.  Both operands must have the same type.
func (b *Builder) Binary(op BinaryOp, x, y ExprID) ExprID {
	b.checkExpr(x)
	b.checkExpr(y)
	reg := b.prog.Types

	t := b.prog.TypeOf(x)
	if yt := b.prog.TypeOf(y); yt != t {
		panic(report.Raise("operand type mismatch: %s and %s", b.repr(t), b.repr(yt)))
	}

	_, isPtr := reg.IsPointer(t)
	result := t
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpRem:
		if !reg.IsArithmetic(t) {
			panic(report.Raise("arithmetic on non-arithmetic type %s", b.repr(t)))
		}
	case OpAnd, OpOr, OpXor:
		if !reg.IsInteger(t) && !reg.IsBool(t) {
			panic(report.Raise("bitwise operation on type %s", b.repr(t)))
		}
	case OpShl, OpShr:
		if !reg.IsInteger(t) {
			panic(report.Raise("shift of non-integer type %s", b.repr(t)))
		}
	case OpEq, OpNe:
		if !reg.IsArithmetic(t) && !reg.IsBool(t) && !isPtr {
			panic(report.Raise("equality comparison of type %s", b.repr(t)))
		}
		result = reg.Builtin(types.Bool)
	case OpLt, OpLe, OpGt, OpGe:
		if !reg.IsArithmetic(t) {
			panic(report.Raise("ordered comparison of non-arithmetic type %s", b.repr(t)))
		}
		result = reg.Builtin(types.Bool)
	case OpLogicAnd, OpLogicOr:
		if !reg.IsBool(t) {
			panic(report.Raise("logical operation on non-bool type %s", b.repr(t)))
		}
	default:
		panic(report.Raise("unknown binary operator %d", op))
	}

	return b.newExpr(&Binary{ExprBase: ExprBase{result}, Op: op, X: x, Y: y})
}

// Cast converts x to arithmetic or bool type t.
func (b *Builder) Cast(t types.ID, x ExprID) ExprID {
	b.checkType(t)
	b.checkExpr(x)
	reg := b.prog.Types

	from := b.prog.TypeOf(x)
	for _, ct := range [2]types.ID{from, t} {
		if !reg.IsArithmetic(ct) && !reg.IsBool(ct) {
			panic(report.Raise("cannot cast %s to %s", b.repr(from), b.repr(t)))
		}
	}

	return b.newExpr(&Cast{ExprBase: ExprBase{t}, X: x})
}

// BitCast reinterprets pointer x as pointer type t.
func (b *Builder) BitCast(t types.ID, x ExprID) ExprID {
	b.checkType(t)
	b.pointee(x, "bitcast")
	if _, ok := b.prog.Types.IsPointer(t); !ok {
		panic(report.Raise("bitcast to non-pointer type %s", b.repr(t)))
	}

	return b.newExpr(&BitCast{ExprBase: ExprBase{t}, X: x})
}

// Offset advances pointer base by index elements.
func (b *Builder) Offset(base, index ExprID) ExprID {
	b.pointee(base, "pointer offset")
	b.checkIndex(index)

	return b.newExpr(&PointerOffset{ExprBase: ExprBase{b.prog.TypeOf(base)}, Base: base, Index: index})
}

// Member returns the address of member field of the struct base points to.
func (b *Builder) Member(base ExprID, field int) ExprID {
	pt := b.pointee(base, "member access")
	st, ok := b.prog.Types.Lookup(pt).(*types.Struct)
	if !ok {
		panic(report.Raise("member access on non-struct type %s", b.repr(pt)))
	}

	if field < 0 || field >= len(st.Members) {
		panic(report.Raise("struct %s has no member %d", b.repr(pt), field))
	}

	return b.newExpr(&MemberAddr{
		ExprBase: ExprBase{b.prog.Types.Pointer(st.Members[field])},
		Base:     base,
		Field:    field,
	})
}

// Elem returns the address of element index of the array base points to.
func (b *Builder) Elem(base, index ExprID) ExprID {
	pt := b.pointee(base, "element access")
	at, ok := b.prog.Types.Lookup(pt).(*types.Array)
	if !ok {
		panic(report.Raise("element access on non-array type %s", b.repr(pt)))
	}

	b.checkIndex(index)
	return b.newExpr(&ElemAddr{
		ExprBase: ExprBase{b.prog.Types.Pointer(at.Elem)},
		Base:     base,
		Index:    index,
	})
}

func (b *Builder) checkIndex(index ExprID) {
	b.checkExpr(index)
	if t := b.prog.TypeOf(index); !b.prog.Types.IsInteger(t) {
		panic(report.Raise("index of non-integer type %s", b.repr(t)))
	}
}

// -----------------------------------------------------------------------------

// Intrinsic resolves an intrinsic identifier of the form `math.<op>.<width>`.
// An unknown identifier is a fatal error.
func (b *Builder) Intrinsic(name string) Callee {
	in, err := intrinsic.Parse(name)
	if err != nil {
		panic(err)
	}

	return IntrinsicCallee(in)
}

// signature returns the parameter and result types of a callee.
func (b *Builder) signature(c Callee) ([]types.ID, types.ID) {
	reg := b.prog.Types

	if c.IsIntrinsic {
		if !c.Intrinsic.Valid() {
			panic(report.Fatal(report.FatalUnknownIntrinsic, "unknown host math function: %s", c.Intrinsic))
		}

		scalar := reg.Builtin(types.F32)
		if c.Intrinsic.Width == intrinsic.F64 {
			scalar = reg.Builtin(types.F64)
		}

		params := make([]types.ID, c.Intrinsic.Op.Arity())
		for i := range params {
			params[i] = scalar
		}

		if c.Intrinsic.Op.IsClassification() {
			return params, reg.Builtin(types.Bool)
		}

		return params, scalar
	}

	if c.Func == NoFunc || int(c.Func) > len(b.prog.funcs) {
		panic(report.Raise("unknown function handle %d", c.Func))
	}

	fn := b.prog.funcs[c.Func-1]
	if fn.Kind == FuncKernel {
		panic(report.Raise("kernel %s cannot be called", fn.Name))
	}

	return fn.Params, fn.Return
}

func (b *Builder) calleeName(c Callee) string {
	if c.IsIntrinsic {
		return c.Intrinsic.String()
	}

	return b.prog.funcs[c.Func-1].Name
}

func (b *Builder) checkArgs(c Callee, args []ExprID) types.ID {
	params, ret := b.signature(c)
	if len(args) != len(params) {
		panic(report.Raise("%s takes %d arguments, got %d", b.calleeName(c), len(params), len(args)))
	}

	for i, arg := range args {
		b.checkExpr(arg)
		if at := b.prog.TypeOf(arg); at != params[i] {
			panic(report.Raise("argument %d of %s: expected %s, got %s", i, b.calleeName(c), b.repr(params[i]), b.repr(at)))
		}
	}

	return ret
}

// CallValue creates a call whose scalar or pointer result is used as a value.
func (b *Builder) CallValue(c Callee, args ...ExprID) ExprID {
	ret := b.checkArgs(c, args)
	if b.prog.Types.IsVoid(ret) {
		panic(report.Raise("%s returns void and has no value", b.calleeName(c)))
	}

	if b.prog.Types.IsAggregate(ret) {
		panic(report.Raise("%s returns %s through a destination: use Call", b.calleeName(c), b.repr(ret)))
	}

	return b.newExpr(&CallExpr{ExprBase: ExprBase{ret}, Callee: c, Args: append([]ExprID(nil), args...)})
}

// CallFunc calls a user function for its value.
func (b *Builder) CallFunc(fn FuncID, args ...ExprID) ExprID {
	return b.CallValue(FuncCallee(fn), args...)
}

// CallIntrinsic calls the named intrinsic for its value.
func (b *Builder) CallIntrinsic(name string, args ...ExprID) ExprID {
	return b.CallValue(b.Intrinsic(name), args...)
}

// -----------------------------------------------------------------------------

// Store writes src to the pointee of dst.
func (b *Builder) Store(dst, src ExprID) {
	pt := b.pointee(dst, "store destination")
	b.checkExpr(src)

	if st := b.prog.TypeOf(src); st != pt {
		panic(report.Raise("cannot store %s into %s", b.repr(st), b.repr(b.prog.TypeOf(dst))))
	}

	b.emit(&Store{Dst: dst, Src: src})
}

// Assign binds the value of rhs to the temporary lhs.
func (b *Builder) Assign(lhs, rhs ExprID) {
	b.checkExpr(lhs)
	b.checkExpr(rhs)

	tr, ok := b.prog.Expr(lhs).(*TempRef)
	if !ok {
		panic(report.Raise("assignment target is not a temporary"))
	}

	if rt := b.prog.TypeOf(rhs); rt != tr.Type() {
		panic(report.Raise("cannot assign %s to temporary of type %s", b.repr(rt), b.repr(tr.Type())))
	}

	b.emit(&Assign{Temp: tr.Temp, Value: rhs})
}

// Let evaluates rhs exactly once into a new temporary and returns the
// temporary's value.
func (b *Builder) Let(rhs ExprID) ExprID {
	b.checkExpr(rhs)

	tmp := b.Temp(b.prog.TypeOf(rhs))
	b.Assign(tmp, rhs)
	return tmp
}

// Break exits the nearest enclosing loop.
func (b *Builder) Break() {
	if b.loopDepth == 0 {
		panic(report.Raise("break outside of a loop"))
	}

	b.emit(&Break{})
}

// Continue proceeds to the next condition evaluation of the nearest enclosing
// loop.
func (b *Builder) Continue() {
	if b.loopDepth == 0 {
		panic(report.Raise("continue outside of a loop"))
	}

	b.emit(&Continue{})
}

// OpenBlock opens a nested block scope.  Subsequent statements are appended
// to it until the matching `CloseBlock`.
func (b *Builder) OpenBlock() {
	blk := &Block{}
	b.emit(blk)
	b.blocks = append(b.blocks, blk)
}

// CloseBlock closes the innermost block scope opened by `OpenBlock`.
func (b *Builder) CloseBlock() {
	b.checkLive()
	if len(b.blocks) == 1 {
		panic(report.Raise("no open block to close"))
	}

	b.blocks = b.blocks[:len(b.blocks)-1]
}

// Scope runs fn inside a nested block scope.
func (b *Builder) Scope(fn func()) {
	b.OpenBlock()
	fn()
	b.CloseBlock()
}

// withBlock runs fn with blk pushed as the current block and returns blk.
func (b *Builder) withBlock(fn func()) *Block {
	blk := &Block{}
	b.blocks = append(b.blocks, blk)
	depth := len(b.blocks)

	fn()

	if len(b.blocks) != depth {
		panic(report.Raise("block scope left open"))
	}

	b.blocks = b.blocks[:depth-1]
	return blk
}

// If executes then when cond holds and els otherwise.  els may be nil.
func (b *Builder) If(cond ExprID, then func(), els func()) {
	b.checkLive()
	b.checkCond(cond, "if")
	if then == nil {
		panic(report.Raise("if requires a then block"))
	}

	stmt := &If{Cond: cond, Then: b.withBlock(then)}
	if els != nil {
		stmt.Else = b.withBlock(els)
	}

	b.emit(stmt)
}

// While builds a loop.  calc appends the statements needed to compute the
// loop condition and returns it; body is executed while it holds.
func (b *Builder) While(calc func() ExprID, body func()) {
	b.checkLive()

	b.loopDepth++
	var cond ExprID
	calcBlock := b.withBlock(func() { cond = calc() })
	b.checkCond(cond, "while")
	bodyBlock := b.withBlock(body)
	b.loopDepth--

	b.emit(&While{Calc: calcBlock, Cond: cond, Body: bodyBlock})
}

func (b *Builder) checkCond(cond ExprID, what string) {
	b.checkExpr(cond)
	if t := b.prog.TypeOf(cond); !b.prog.Types.IsBool(t) {
		panic(report.Raise("%s condition must be bool, got %s", what, b.repr(t)))
	}
}

// Return returns from a scalar, pointer or void function.  value must be
// `NoExpr` for void functions.
func (b *Builder) Return(value ExprID) {
	ret := b.fn.Return
	reg := b.prog.Types

	switch {
	case reg.IsAggregate(ret):
		panic(report.Raise("function %s returns %s: use ReturnArray or ReturnClass", b.fn.Name, b.repr(ret)))
	case reg.IsVoid(ret):
		if value.IsValid() {
			panic(report.Raise("void function %s cannot return a value", b.fn.Name))
		}
	default:
		if !value.IsValid() {
			panic(report.Raise("function %s must return a %s", b.fn.Name, b.repr(ret)))
		}

		b.checkExpr(value)
		if vt := b.prog.TypeOf(value); vt != ret {
			panic(report.Raise("function %s returns %s, got %s", b.fn.Name, b.repr(ret), b.repr(vt)))
		}
	}

	b.emit(&Return{Value: value})
}

// ReturnArray returns the array which has been written to ptr.
func (b *Builder) ReturnArray(ptr ExprID) {
	if _, ok := b.prog.Types.Lookup(b.fn.Return).(*types.Array); !ok {
		panic(report.Raise("ReturnArray in function %s returning %s", b.fn.Name, b.repr(b.fn.Return)))
	}

	b.checkResultPtr(ptr)
	b.emit(&ReturnArray{Ptr: ptr})
}

// ReturnClass returns the struct which has been written to ptr.
func (b *Builder) ReturnClass(ptr ExprID) {
	if _, ok := b.prog.Types.Lookup(b.fn.Return).(*types.Struct); !ok {
		panic(report.Raise("ReturnClass in function %s returning %s", b.fn.Name, b.repr(b.fn.Return)))
	}

	b.checkResultPtr(ptr)
	b.emit(&ReturnClass{Ptr: ptr})
}

func (b *Builder) checkResultPtr(ptr ExprID) {
	if pt := b.pointee(ptr, "return"); pt != b.fn.Return {
		panic(report.Raise("function %s returns %s, got pointer to %s", b.fn.Name, b.repr(b.fn.Return), b.repr(pt)))
	}
}

// Call invokes c with args and writes its result to dst.  dst may be `NoExpr`
// to discard a scalar result; it is required for array and struct results.
func (b *Builder) Call(c Callee, dst ExprID, args ...ExprID) {
	ret := b.checkArgs(c, args)
	reg := b.prog.Types

	if dst.IsValid() {
		if reg.IsVoid(ret) {
			panic(report.Raise("%s returns void and has no result to store", b.calleeName(c)))
		}

		if pt := b.pointee(dst, "call destination"); pt != ret {
			panic(report.Raise("cannot store result of %s (%s) into %s", b.calleeName(c), b.repr(ret), b.repr(b.prog.TypeOf(dst))))
		}
	} else if reg.IsAggregate(ret) {
		panic(report.Raise("%s returns %s and requires a destination", b.calleeName(c), b.repr(ret)))
	}

	b.emit(&Call{Callee: c, Args: append([]ExprID(nil), args...), Dst: dst})
}
