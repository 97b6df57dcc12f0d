package vm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: the tagged runtime value
// ---------------------------------------------------------------------------

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindTrue
	KindInt
	KindFloat
	KindStr
	KindPointer
	KindList
	KindData
	KindFunc
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindTrue:
		return "True"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindStr:
		return "Str"
	case KindPointer:
		return "Pointer"
	case KindList:
		return "List"
	case KindData:
		return "Data"
	case KindFunc:
		return "Func"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a Parlor runtime value. The zero Value is Null.
//
// Null doubles as the false sentinel: there is no distinct false
// value, and True is the only true value. Everything except Null is
// truthy in conditionals.
type Value struct {
	kind   Kind
	n      int64
	f      float64
	s      string
	addr   Address // Pointer target, or Data tag
	list   []Value
	fields map[Label]Value
	fn     *Func
}

// Func is a first-class closure value: an ordered parameter list and
// a body Block. There is no captured environment; registers are
// rebuilt from the argument binding at call time.
type Func struct {
	Params []Label
	Body   *Block
}

// Pre-defined sentinel values.
var (
	Null = Value{kind: KindNull}
	True = Value{kind: KindTrue}
)

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromInt creates an Int value.
func FromInt(n int64) Value {
	return Value{kind: KindInt, n: n}
}

// FromFloat creates a Float value.
func FromFloat(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// FromStr creates a Str value.
func FromStr(s string) Value {
	return Value{kind: KindStr, s: s}
}

// FromBool maps a Go bool onto True/Null.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return Null
}

// PointerTo creates a Pointer value referencing addr.
func PointerTo(addr Address) Value {
	return Value{kind: KindPointer, addr: addr}
}

// ListOf creates a List value. A nil or empty element slice and "no
// list" are the same observable state; both render as length 0.
func ListOf(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// DataOf creates a Data value: an Address tag paired with named
// fields. The fields map is taken over by the value, not copied.
func DataOf(tag Address, fields map[Label]Value) Value {
	if fields == nil {
		fields = map[Label]Value{}
	}
	return Value{kind: KindData, addr: tag, fields: fields}
}

// FuncOf creates a Func value.
func FuncOf(params []Label, body *Block) Value {
	return Value{kind: KindFunc, fn: &Func{Params: params, Body: body}}
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Kind returns the variant tag of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsTruthy reports whether v counts as true in conditionals.
// Only Null is falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v.kind != KindNull
}

// Tag returns a Data value's constructor tag, or the zero Address for
// any other variant.
func (v Value) Tag() Address {
	if v.kind != KindData {
		return Address{}
	}
	return v.addr
}

// Field returns the named field of a Data value.
func (v Value) Field(name Label) (Value, bool) {
	if v.kind != KindData {
		return Null, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// FieldNames returns a Data value's field names in sorted order.
func (v Value) FieldNames() []Label {
	if v.kind != KindData {
		return nil
	}
	names := make([]Label, 0, len(v.fields))
	for name := range v.fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Len returns the length of a List (0 for the absent list) and -1 for
// non-list values.
func (v Value) Len() int {
	if v.kind != KindList {
		return -1
	}
	return len(v.list)
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

// Equal reports structural equality.
func (v Value) Equal(w Value) bool {
	return v.Compare(w) == 0
}

// Compare imposes a total, structural order over all values so they
// can key maps and sets. Variants order by Kind first; within a
// variant, Pointer targets, Data tags, and List contents all
// participate. Funcs compare by parameter list, then by the printed
// form of their body. NaN floats sort before every other float and
// equal to each other, keeping the order total.
func (v Value) Compare(w Value) int {
	if v.kind != w.kind {
		if v.kind < w.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindNull, KindTrue:
		return 0
	case KindInt:
		switch {
		case v.n < w.n:
			return -1
		case v.n > w.n:
			return 1
		}
		return 0
	case KindFloat:
		return compareFloat(v.f, w.f)
	case KindStr:
		return strings.Compare(v.s, w.s)
	case KindPointer:
		return v.addr.Compare(w.addr)
	case KindList:
		for i := 0; i < len(v.list) && i < len(w.list); i++ {
			if c := v.list[i].Compare(w.list[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(v.list) < len(w.list):
			return -1
		case len(v.list) > len(w.list):
			return 1
		}
		return 0
	case KindData:
		if c := v.addr.Compare(w.addr); c != 0 {
			return c
		}
		vn, wn := v.FieldNames(), w.FieldNames()
		for i := 0; i < len(vn) && i < len(wn); i++ {
			if vn[i] != wn[i] {
				if vn[i] < wn[i] {
					return -1
				}
				return 1
			}
			if c := v.fields[vn[i]].Compare(w.fields[wn[i]]); c != 0 {
				return c
			}
		}
		switch {
		case len(vn) < len(wn):
			return -1
		case len(vn) > len(wn):
			return 1
		}
		return 0
	case KindFunc:
		vp, wp := v.fn.Params, w.fn.Params
		for i := 0; i < len(vp) && i < len(wp); i++ {
			if vp[i] != wp[i] {
				if vp[i] < wp[i] {
					return -1
				}
				return 1
			}
		}
		switch {
		case len(vp) < len(wp):
			return -1
		case len(vp) > len(wp):
			return 1
		}
		if v.fn.Body == w.fn.Body {
			return 0
		}
		return strings.Compare(v.fn.Body.String(), w.fn.Body.String())
	}
	panic("Value.Compare: unknown kind")
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// String renders v for diagnostics. The rendering is deterministic
// but is not a parseable source form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindTrue:
		return "true"
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindStr:
		return strconv.Quote(v.s)
	case KindPointer:
		return "&" + v.addr.String()
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindData:
		var sb strings.Builder
		sb.WriteString(v.addr.String())
		sb.WriteByte('{')
		for i, name := range v.FieldNames() {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", name, v.fields[name])
		}
		sb.WriteByte('}')
		return sb.String()
	case KindFunc:
		params := make([]string, len(v.fn.Params))
		for i, p := range v.fn.Params {
			params[i] = string(p)
		}
		return "func(" + strings.Join(params, ", ") + ")"
	}
	return "<invalid>"
}
