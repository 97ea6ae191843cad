package codegen

import (
	lltypes "github.com/llir/llvm/ir/types"

	"symjit/report"
	"symjit/types"
)

// globalAddrSpace is the NVPTX global memory address space.
const globalAddrSpace = 1

// convType converts a registry type into its LLVM type.
func (g *Generator) convType(id types.ID) lltypes.Type {
	if t, ok := g.typeCache[id]; ok {
		return t
	}

	var t lltypes.Type
	switch v := g.prog.Types.Lookup(id).(type) {
	case types.Builtin:
		t = convBuiltin(v)
	case *types.Struct:
		fields := make([]lltypes.Type, len(v.Members))
		for i, m := range v.Members {
			fields[i] = g.convType(m)
		}

		t = lltypes.NewStruct(fields...)
	case *types.Array:
		t = lltypes.NewArray(v.Size, g.convType(v.Elem))
	case *types.Pointer:
		t = g.convPointer(v.Pointee)
	default:
		report.ICE("unknown type variant %T", v)
	}

	g.typeCache[id] = t
	return t
}

// convPointer converts a pointer to pointee.  Void pointers become i8
// pointers.
func (g *Generator) convPointer(pointee types.ID) *lltypes.PointerType {
	if g.prog.Types.IsVoid(pointee) {
		return lltypes.NewPointer(lltypes.I8)
	}

	return lltypes.NewPointer(g.convType(pointee))
}

// convGlobalPointer converts a pointer type into a pointer in the global
// address space.
func (g *Generator) convGlobalPointer(pointee types.ID) *lltypes.PointerType {
	generic := g.convPointer(pointee)

	pt := lltypes.NewPointer(generic.ElemType)
	pt.AddrSpace = globalAddrSpace
	return pt
}

func convBuiltin(b types.Builtin) lltypes.Type {
	switch b {
	case types.S8, types.U8, types.Char:
		return lltypes.I8
	case types.S16, types.U16:
		return lltypes.I16
	case types.S32, types.U32:
		return lltypes.I32
	case types.S64, types.U64:
		return lltypes.I64
	case types.F32:
		return lltypes.Float
	case types.F64:
		return lltypes.Double
	case types.Bool:
		return lltypes.I1
	case types.Void:
		return lltypes.Void
	}

	report.ICE("unknown builtin %d", int(b))
	return nil
}

// isSigned returns whether integer or float type id is signed.
func (g *Generator) isSigned(id types.ID) bool {
	b, ok := g.prog.Types.IsBuiltin(id)
	return ok && b.IsSigned()
}
