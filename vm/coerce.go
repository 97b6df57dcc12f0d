package vm

// Partial coercion helpers. Each returns the requested shape plus an
// ok flag; the evaluator uses the flag to decide between a successful
// operator application and a BadInstruction error.

// AsInt extracts an Int payload.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.n, true
}

// AsFloat extracts a Float payload.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsBool maps the two boolean sentinels onto Go bools. Values other
// than True and Null are not boolean-coercible.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindTrue:
		return true, true
	case KindNull:
		return false, true
	}
	return false, false
}

// AsStr extracts a Str payload.
func (v Value) AsStr() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

// AsList extracts a List's elements. The absent list yields an empty
// slice; the returned slice must not be mutated.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsPointer extracts a Pointer's target address.
func (v Value) AsPointer() (Address, bool) {
	if v.kind != KindPointer {
		return Address{}, false
	}
	return v.addr, true
}

// AsData extracts the fields of a Data value carrying the given tag.
func (v Value) AsData(tag Address) (map[Label]Value, bool) {
	if v.kind != KindData || !v.addr.Equal(tag) {
		return nil, false
	}
	return v.fields, true
}

// AsFunc extracts a Func payload.
func (v Value) AsFunc() (*Func, bool) {
	if v.kind != KindFunc {
		return nil, false
	}
	return v.fn, true
}
