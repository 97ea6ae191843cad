// Package types implements the type registry: structural type descriptions
// interned into small, comparable handles.
package types

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ID is a registry-assigned handle for an interned type.  The high half holds
// the tag of the issuing registry and the low half the entry index, so handles
// from different registries never collide.  Identity comparison of two IDs is
// equivalent to structural equality within one registry.
type ID uint64

// NoType is the invalid type handle.
const NoType ID = 0

// IsValid returns whether the ID refers to an interned type.
func (id ID) IsValid() bool { return id != NoType }

func (id ID) tag() uint32 { return uint32(id >> 32) }

// index returns the 1-based entry index of id within its registry.
func (id ID) index() int { return int(uint32(id)) }

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.tag(), id.index())
}

// Type is a structural type description.  It is one of `Builtin`, `*Struct`,
// `*Array` or `*Pointer`.
type Type interface {
	// rank orders the type variants relative to each other.
	rank() int
}

// -----------------------------------------------------------------------------

// Builtin is a builtin scalar kind.  This must be one of the enumerated builtin
// values below.
type Builtin int

// Enumeration of the builtin kinds.  The order is the ordering of builtins
// within the total type order.
const (
	S8 Builtin = iota
	S16
	S32
	S64
	U8
	U16
	U32
	U64
	F32
	F64
	Char
	Bool
	Void
)

func (Builtin) rank() int { return 0 }

// IsFloat returns whether the builtin is a floating-point kind.
func (b Builtin) IsFloat() bool {
	return b == F32 || b == F64
}

// IsInteger returns whether the builtin is an integral kind.  Char is
// integral; bool is not.
func (b Builtin) IsInteger() bool {
	return b <= U64 || b == Char
}

// IsSigned returns whether the builtin is a signed kind.  Char is always an
// 8-bit signed integer regardless of the host platform.
func (b Builtin) IsSigned() bool {
	switch b {
	case S8, S16, S32, S64, F32, F64, Char:
		return true
	default:
		return false
	}
}

// Bits returns the width of the builtin in bits.
func (b Builtin) Bits() int {
	switch b {
	case S8, U8, Char:
		return 8
	case S16, U16:
		return 16
	case S32, U32, F32:
		return 32
	case S64, U64, F64:
		return 64
	case Bool:
		return 1
	default:
		return 0
	}
}

var builtinNames = [...]string{
	S8: "s8", S16: "s16", S32: "s32", S64: "s64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
	Char: "char", Bool: "bool", Void: "void",
}

func (b Builtin) String() string {
	if 0 <= b && int(b) < len(builtinNames) {
		return builtinNames[b]
	}

	return fmt.Sprintf("builtin(%d)", int(b))
}

// Struct is an aggregate record of ordered members.
type Struct struct {
	Members []ID
}

func (*Struct) rank() int { return 1 }

// Array is a fixed-size array.
type Array struct {
	Elem ID
	Size uint64
}

func (*Array) rank() int { return 2 }

// Pointer is a pointer to a single pointee.
type Pointer struct {
	Pointee ID
}

func (*Pointer) rank() int { return 3 }

// -----------------------------------------------------------------------------

// Registry interns structural type descriptions.  Registries are independent
// and not safe for concurrent mutation: each compilation owns its own.
type Registry struct {
	// tag distinguishes handles issued by this registry.
	tag uint32

	// entries[id.index()-1] is the description of the type with the given ID.
	entries []Type

	// index maps structural keys to their canonical handle.
	index map[string]ID
}

// registryTags issues registry tags.  Tag 0 is never issued.
var registryTags atomic.Uint32

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{tag: registryTags.Add(1), index: make(map[string]ID)}
}

// Len returns the number of interned types.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Owns returns whether id was issued by this registry.
func (r *Registry) Owns(id ID) bool {
	return id.tag() == r.tag && id.index() >= 1 && id.index() <= len(r.entries)
}

// Lookup returns the description of an interned type.
func (r *Registry) Lookup(id ID) Type {
	if !r.Owns(id) {
		panic(fmt.Sprintf("types: handle %s not issued by this registry", id))
	}

	return r.entries[id.index()-1]
}

// Builtin interns a builtin kind.
func (r *Registry) Builtin(b Builtin) ID {
	if b < S8 || b > Void {
		panic(fmt.Sprintf("types: invalid builtin kind %d", int(b)))
	}

	return r.intern(fmt.Sprintf("b%d", int(b)), b)
}

// Struct interns a struct with the given ordered members.
func (r *Registry) Struct(members ...ID) ID {
	var sb strings.Builder
	sb.WriteString("s")
	for _, m := range members {
		r.mustOwn(m)
		fmt.Fprintf(&sb, ",%d", m.index())
	}

	return r.intern(sb.String(), &Struct{Members: append([]ID(nil), members...)})
}

// Array interns an array of size elements of type elem.
func (r *Registry) Array(elem ID, size uint64) ID {
	r.mustOwn(elem)
	return r.intern(fmt.Sprintf("a%d,%d", elem.index(), size), &Array{Elem: elem, Size: size})
}

// Pointer interns a pointer to pointee.
func (r *Registry) Pointer(pointee ID) ID {
	r.mustOwn(pointee)
	return r.intern(fmt.Sprintf("p%d", pointee.index()), &Pointer{Pointee: pointee})
}

func (r *Registry) mustOwn(id ID) {
	if !r.Owns(id) {
		panic(fmt.Sprintf("types: handle %s not issued by this registry", id))
	}
}

// intern looks up the structural key and allocates a new entry on miss.  The
// key of a composite is built from its constituents' canonical handles so
// constituents must already be interned.
func (r *Registry) intern(key string, desc Type) ID {
	if id, ok := r.index[key]; ok {
		return id
	}

	r.entries = append(r.entries, desc)
	id := r.handle(len(r.entries))
	r.index[key] = id
	return id
}

// handle returns the ID of the entry with the given 1-based index.
func (r *Registry) handle(index int) ID {
	return ID(uint64(r.tag)<<32 | uint64(uint32(index)))
}

// -----------------------------------------------------------------------------

// Builtin convenience accessors.

// IsBuiltin returns the builtin kind of id if it is a builtin.
func (r *Registry) IsBuiltin(id ID) (Builtin, bool) {
	b, ok := r.Lookup(id).(Builtin)
	return b, ok
}

// Is returns whether id is exactly the given builtin.
func (r *Registry) Is(id ID, b Builtin) bool {
	bt, ok := r.IsBuiltin(id)
	return ok && bt == b
}

// IsVoid returns whether id is the void type.
func (r *Registry) IsVoid(id ID) bool {
	return r.Is(id, Void)
}

// IsBool returns whether id is the bool type.
func (r *Registry) IsBool(id ID) bool {
	return r.Is(id, Bool)
}

// IsFloat returns whether id is a floating-point type.
func (r *Registry) IsFloat(id ID) bool {
	b, ok := r.IsBuiltin(id)
	return ok && b.IsFloat()
}

// IsInteger returns whether id is an integral type.
func (r *Registry) IsInteger(id ID) bool {
	b, ok := r.IsBuiltin(id)
	return ok && b.IsInteger()
}

// IsArithmetic returns whether id is an integral or floating-point type.
func (r *Registry) IsArithmetic(id ID) bool {
	b, ok := r.IsBuiltin(id)
	return ok && (b.IsInteger() || b.IsFloat())
}

// IsPointer returns the pointee of id if it is a pointer type.
func (r *Registry) IsPointer(id ID) (ID, bool) {
	if p, ok := r.Lookup(id).(*Pointer); ok {
		return p.Pointee, true
	}

	return NoType, false
}

// IsAggregate returns whether id is returned through an out-pointer: ie. it
// is an array or a struct.
func (r *Registry) IsAggregate(id ID) bool {
	switch r.Lookup(id).(type) {
	case *Struct, *Array:
		return true
	default:
		return false
	}
}

// Repr returns the representative string for a type.
func (r *Registry) Repr(id ID) string {
	switch t := r.Lookup(id).(type) {
	case Builtin:
		return t.String()
	case *Struct:
		members := make([]string, len(t.Members))
		for i, m := range t.Members {
			members[i] = r.Repr(m)
		}

		return "{" + strings.Join(members, ", ") + "}"
	case *Array:
		return fmt.Sprintf("[%d x %s]", t.Size, r.Repr(t.Elem))
	case *Pointer:
		return r.Repr(t.Pointee) + "*"
	default:
		panic(fmt.Sprintf("types: unknown type variant %T", t))
	}
}
