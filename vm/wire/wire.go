// Package wire implements the CBOR wire form of runtime values, used
// when results, error payloads, or transcript rows cross the host
// boundary. Encoding is canonical, so equal values encode to equal
// bytes.
//
// Func values do not cross the wire: a closure is only meaningful
// against the registry and block store of the runtime that built it.
package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/parlorlang/parlor/vm"
)

// ErrFuncNotPortable is returned when a Func value is encoded.
var ErrFuncNotPortable = errors.New("wire: func values do not cross the wire")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireValue is the CBOR shape of a vm.Value.
type wireValue struct {
	Kind   uint8                `cbor:"1,keyasint"`
	Int    int64                `cbor:"2,keyasint,omitempty"`
	Float  float64              `cbor:"3,keyasint,omitempty"`
	Str    string               `cbor:"4,keyasint,omitempty"`
	Addr   string               `cbor:"5,keyasint,omitempty"` // Pointer target or Data tag
	List   []wireValue          `cbor:"6,keyasint,omitempty"`
	Fields map[string]wireValue `cbor:"7,keyasint,omitempty"`
}

// MarshalValue serializes v to canonical CBOR bytes.
func MarshalValue(v vm.Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(w)
}

// UnmarshalValue deserializes a value from CBOR bytes.
func UnmarshalValue(data []byte) (vm.Value, error) {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return vm.Null, fmt.Errorf("wire: unmarshal value: %w", err)
	}
	return fromWire(w)
}

func toWire(v vm.Value) (wireValue, error) {
	w := wireValue{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case vm.KindNull, vm.KindTrue:
	case vm.KindInt:
		w.Int, _ = v.AsInt()
	case vm.KindFloat:
		w.Float, _ = v.AsFloat()
	case vm.KindStr:
		w.Str, _ = v.AsStr()
	case vm.KindPointer:
		addr, _ := v.AsPointer()
		w.Addr = addr.String()
	case vm.KindList:
		elems, _ := v.AsList()
		w.List = make([]wireValue, len(elems))
		for i, e := range elems {
			we, err := toWire(e)
			if err != nil {
				return wireValue{}, err
			}
			w.List[i] = we
		}
	case vm.KindData:
		w.Addr = v.Tag().String()
		w.Fields = map[string]wireValue{}
		for _, name := range v.FieldNames() {
			f, _ := v.Field(name)
			wf, err := toWire(f)
			if err != nil {
				return wireValue{}, err
			}
			w.Fields[string(name)] = wf
		}
	case vm.KindFunc:
		return wireValue{}, ErrFuncNotPortable
	default:
		return wireValue{}, fmt.Errorf("wire: unknown kind %d", v.Kind())
	}
	return w, nil
}

func fromWire(w wireValue) (vm.Value, error) {
	switch vm.Kind(w.Kind) {
	case vm.KindNull:
		return vm.Null, nil
	case vm.KindTrue:
		return vm.True, nil
	case vm.KindInt:
		return vm.FromInt(w.Int), nil
	case vm.KindFloat:
		return vm.FromFloat(w.Float), nil
	case vm.KindStr:
		return vm.FromStr(w.Str), nil
	case vm.KindPointer:
		addr, err := vm.ParseAddress(w.Addr)
		if err != nil {
			return vm.Null, fmt.Errorf("wire: bad pointer target: %w", err)
		}
		return vm.PointerTo(addr), nil
	case vm.KindList:
		elems := make([]vm.Value, len(w.List))
		for i, we := range w.List {
			e, err := fromWire(we)
			if err != nil {
				return vm.Null, err
			}
			elems[i] = e
		}
		return vm.ListOf(elems...), nil
	case vm.KindData:
		tag, err := vm.ParseAddress(w.Addr)
		if err != nil {
			return vm.Null, fmt.Errorf("wire: bad data tag: %w", err)
		}
		fields := make(map[vm.Label]vm.Value, len(w.Fields))
		for name, wf := range w.Fields {
			label, err := vm.ParseLabel(name)
			if err != nil {
				return vm.Null, fmt.Errorf("wire: bad field name: %w", err)
			}
			f, err := fromWire(wf)
			if err != nil {
				return vm.Null, err
			}
			fields[label] = f
		}
		return vm.DataOf(tag, fields), nil
	case vm.KindFunc:
		return vm.Null, ErrFuncNotPortable
	}
	return vm.Null, fmt.Errorf("wire: unknown kind %d", w.Kind)
}
