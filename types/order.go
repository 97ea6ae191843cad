package types

import (
	"fmt"
	"sort"
)

// Compare imposes a strict total order over the types of a registry.  It
// returns -1, 0 or 1.  Variants are ordered builtin < struct < array < pointer;
// composite types order by recursively comparing their constituents.  Compare
// returns 0 if and only if a and b are the same handle.
func (r *Registry) Compare(a, b ID) int {
	if a == b {
		return 0
	}

	ta, tb := r.Lookup(a), r.Lookup(b)
	if ra, rb := ta.rank(), tb.rank(); ra != rb {
		return cmpInt(ra, rb)
	}

	switch va := ta.(type) {
	case Builtin:
		return cmpInt(int(va), int(tb.(Builtin)))
	case *Struct:
		vb := tb.(*Struct)
		if c := cmpInt(len(va.Members), len(vb.Members)); c != 0 {
			return c
		}

		for i := range va.Members {
			if c := r.Compare(va.Members[i], vb.Members[i]); c != 0 {
				return c
			}
		}
	case *Array:
		vb := tb.(*Array)
		if c := r.Compare(va.Elem, vb.Elem); c != 0 {
			return c
		}

		switch {
		case va.Size < vb.Size:
			return -1
		case va.Size > vb.Size:
			return 1
		}
	case *Pointer:
		return r.Compare(va.Pointee, tb.(*Pointer).Pointee)
	default:
		panic(fmt.Sprintf("types: unknown type variant %T", va))
	}

	// Distinct handles always differ structurally.
	panic(fmt.Sprintf("types: handles %s and %s are structurally equal", a, b))
}

// Less reports whether a orders strictly before b.
func (r *Registry) Less(a, b ID) bool {
	return r.Compare(a, b) < 0
}

// Equal reports whether a and b are the same type.
func (r *Registry) Equal(a, b ID) bool {
	return a == b
}

// All returns every interned type sorted by the total order.
func (r *Registry) All() []ID {
	ids := make([]ID, len(r.entries))
	for i := range ids {
		ids[i] = r.handle(i + 1)
	}

	sort.Slice(ids, func(i, j int) bool {
		return r.Less(ids[i], ids[j])
	})

	return ids
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
