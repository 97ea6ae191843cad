package codegen

import (
	"symjit/ir"
	"symjit/report"
)

// genBlock lowers the statements of a block at the current block.  Statements
// following a terminating statement are unreachable and are not lowered.
func (g *Generator) genBlock(block *ir.Block) {
	for _, stmt := range block.Stmts {
		if g.block.Term != nil {
			return
		}

		g.genStmt(stmt)
	}
}

// genStmt lowers a single statement.
func (g *Generator) genStmt(stmt ir.Stmt) {
	switch v := stmt.(type) {
	case *ir.Store:
		dst := g.genExpr(v.Dst)
		g.block.NewStore(g.genExpr(v.Src), dst)
	case *ir.Assign:
		g.block.NewStore(g.genExpr(v.Value), g.temps[v.Temp])
	case *ir.Break:
		g.block.NewBr(g.currentLoop().exitBlock)
	case *ir.Continue:
		g.block.NewBr(g.currentLoop().condBlock)
	case *ir.Block:
		g.genBlock(v)
	case *ir.If:
		g.genIf(v)
	case *ir.While:
		g.genWhile(v)
	case *ir.Return:
		if v.Value.IsValid() {
			g.block.NewRet(g.genExpr(v.Value))
		} else {
			g.block.NewRet(nil)
		}
	case *ir.ReturnArray:
		g.genReturnViaPointer(v.Ptr)
	case *ir.ReturnClass:
		g.genReturnViaPointer(v.Ptr)
	case *ir.Call:
		g.genCallStmt(v)
	default:
		report.ICE("unknown statement %T", stmt)
	}
}

func (g *Generator) currentLoop() loopContext {
	if len(g.loops) == 0 {
		report.ICE("loop control outside of a loop in %s", g.fn.Name)
	}

	return g.loops[len(g.loops)-1]
}

// genIf lowers an if statement into a conditional branch graph.  The exit
// block is only created if some branch falls through.
func (g *Generator) genIf(stmt *ir.If) {
	cond := g.genExpr(stmt.Cond)
	condBlock := g.block

	thenBlock := g.appendBlock()
	g.block = thenBlock
	g.genBlock(stmt.Then)
	thenEnd := g.block

	var elseBlock, elseEnd = condBlock, condBlock
	if stmt.Else != nil {
		elseBlock = g.appendBlock()
		g.block = elseBlock
		g.genBlock(stmt.Else)
		elseEnd = g.block
	}

	thenFalls := thenEnd.Term == nil
	elseFalls := stmt.Else == nil || elseEnd.Term == nil

	if !thenFalls && !elseFalls {
		condBlock.NewCondBr(cond, thenBlock, elseBlock)

		// both branches terminate: the remainder of the enclosing block is
		// unreachable.
		g.block = elseEnd
		return
	}

	exitBlock := g.appendBlock()
	if stmt.Else == nil {
		condBlock.NewCondBr(cond, thenBlock, exitBlock)
	} else {
		condBlock.NewCondBr(cond, thenBlock, elseBlock)
		if elseFalls {
			elseEnd.NewBr(exitBlock)
		}
	}

	if thenFalls {
		thenEnd.NewBr(exitBlock)
	}

	g.block = exitBlock
}

// genWhile lowers a while loop.  The condition block re-runs the condition
// calculation each iteration and is the target of `continue`.
func (g *Generator) genWhile(stmt *ir.While) {
	condBlock := g.appendBlock()
	g.block.NewBr(condBlock)

	exitBlock := g.appendBlock()
	g.loops = append(g.loops, loopContext{condBlock: condBlock, exitBlock: exitBlock})

	g.block = condBlock
	g.genBlock(stmt.Calc)

	if g.block.Term == nil {
		cond := g.genExpr(stmt.Cond)
		condEnd := g.block

		bodyBlock := g.appendBlock()
		g.block = bodyBlock
		g.genBlock(stmt.Body)

		if g.block.Term == nil {
			g.block.NewBr(condBlock)
		}

		condEnd.NewCondBr(cond, bodyBlock, exitBlock)
	}

	g.loops = g.loops[:len(g.loops)-1]
	g.block = exitBlock
}

// genReturnViaPointer lowers a return through the caller-supplied
// destination.  The result is copied into the destination unless it was
// written there directly.
func (g *Generator) genReturnViaPointer(ptr ir.ExprID) {
	if _, ok := g.prog.Expr(ptr).(*ir.ResultSlot); !ok {
		src := g.genExpr(ptr)
		g.block.NewStore(g.block.NewLoad(g.convType(g.fn.Return), src), g.resultPtr)
	}

	g.block.NewRet(nil)
}

// genCallStmt lowers a call statement.
func (g *Generator) genCallStmt(stmt *ir.Call) {
	if !stmt.Callee.IsIntrinsic && g.returnsViaPointer(g.prog.Func(stmt.Callee.Func)) {
		g.genFuncCall(stmt.Callee.Func, stmt.Args, g.genExpr(stmt.Dst))
		return
	}

	result := g.genCall(stmt.Callee, stmt.Args)
	if stmt.Dst.IsValid() {
		g.block.NewStore(result, g.genExpr(stmt.Dst))
	}
}
