package ir

// Stmt is a statement: one of `*Store`, `*Assign`, `*Break`, `*Continue`,
// `*Block`, `*If`, `*While`, `*Return`, `*ReturnArray`, `*ReturnClass` or
// `*Call`.
type Stmt interface {
	stmtNode()
}

// Store writes Src to the pointee of Dst.
type Store struct {
	Dst, Src ExprID
}

// Assign evaluates Value exactly once and binds it to temporary Temp.
type Assign struct {
	Temp  int
	Value ExprID
}

// Break exits the nearest enclosing loop.
type Break struct{}

// Continue proceeds to the next condition evaluation of the nearest enclosing
// loop.
type Continue struct{}

// Block is an append-only sequence of statements.
type Block struct {
	Stmts []Stmt
}

// If executes Then when Cond holds, otherwise Else if present.
type If struct {
	Cond ExprID
	Then *Block

	// Else may be nil.
	Else *Block
}

// While executes Calc then tests Cond; while Cond holds it executes Body and
// repeats from Calc.
type While struct {
	Calc *Block
	Cond ExprID
	Body *Block
}

// Return returns Value, or nothing when Value is `NoExpr`.
type Return struct {
	Value ExprID
}

// ReturnArray returns an array which has been written to Ptr.
type ReturnArray struct {
	Ptr ExprID
}

// ReturnClass returns a struct which has been written to Ptr.
type ReturnClass struct {
	Ptr ExprID
}

// Call invokes Callee and writes the result to Dst unless Dst is `NoExpr`.
type Call struct {
	Callee Callee
	Args   []ExprID
	Dst    ExprID
}

func (*Store) stmtNode()       {}
func (*Assign) stmtNode()      {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Block) stmtNode()       {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*Return) stmtNode()      {}
func (*ReturnArray) stmtNode() {}
func (*ReturnClass) stmtNode() {}
func (*Call) stmtNode()        {}

// append adds a statement to the end of the block.
func (b *Block) append(s Stmt) {
	b.Stmts = append(b.Stmts, s)
}
