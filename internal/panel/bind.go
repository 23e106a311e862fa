package panel

import (
	"fmt"
	"math"
	"reflect"
)

// Choice is one labeled option of a choice control.
type Choice[T any] struct {
	Label string
	Value T
}

// BindNumeric binds a numeric field of target (a pointer to a struct) to a [min,max] range with the given step.
// Every error is reported here, at bind time, and nothing is registered in that case.
func BindNumeric(g *Group, target any, field string, min, max, step float64) (*Control, error) {
	fv, err := lookupField(target, field)
	if err != nil {
		return nil, err
	}
	if _, ok := toFloat(reflect.Zero(fv.Type()).Interface()); !ok {
		return nil, fmt.Errorf("%w: %s is %s, want a number", ErrFieldType, field, fv.Type())
	}
	if math.IsNaN(min) || math.IsNaN(max) || min > max || step < 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("%w: [%v,%v] step %v for %s", ErrDomain, min, max, step, field)
	}
	if lo, hi, ok := intRange(fv.Type()); ok && (math.Round(min) < lo || math.Round(max) >= hi) {
		return nil, fmt.Errorf("%w: [%v,%v] does not fit in %s (%s)", ErrDomain, min, max, field, fv.Type())
	}
	c := newControl(g, field, KindNumber, fv)
	c.min, c.max, c.step = min, max, step
	return c, nil
}

// BindBoolean binds a boolean field of target (a pointer to a struct) to a toggle.
func BindBoolean(g *Group, target any, field string) (*Control, error) {
	fv, err := lookupField(target, field)
	if err != nil {
		return nil, err
	}
	if fv.Kind() != reflect.Bool {
		return nil, fmt.Errorf("%w: %s is %s, want bool", ErrFieldType, field, fv.Type())
	}
	return newControl(g, field, KindBool, fv), nil
}

// BindChoice binds a field of target (a pointer to a struct) to a set of labeled values.
// Selecting a label assigns its value to the field. Labels must be unique and non-empty,
// and T must be assignable to the field type.
func BindChoice[T any](g *Group, target any, field string, choices ...Choice[T]) (*Control, error) {
	fv, err := lookupField(target, field)
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: no options for %s", ErrChoice, field)
	}
	if vt := reflect.TypeFor[T](); !vt.AssignableTo(fv.Type()) {
		return nil, fmt.Errorf("%w: option type %s cannot be assigned to %s (%s)", ErrChoice, vt, field, fv.Type())
	}
	entries := make([]choiceEntry, 0, len(choices))
	seen := map[string]bool{}
	for _, ch := range choices {
		if ch.Label == "" || seen[ch.Label] {
			return nil, fmt.Errorf("%w: empty or duplicated label %q for %s", ErrChoice, ch.Label, field)
		}
		seen[ch.Label] = true
		v := reflect.New(fv.Type()).Elem()
		v.Set(reflect.ValueOf(&ch.Value).Elem())
		entries = append(entries, choiceEntry{label: ch.Label, value: v})
	}
	c := newControl(g, field, KindChoice, fv)
	c.choices = entries
	return c, nil
}

// intRange returns the values an integer type can hold as [lo,hi). Floats report false.
func intRange(t reflect.Type) (lo, hi float64, ok bool) {
	bits := t.Bits()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 0, math.Ldexp(1, bits), true
	}
	return 0, 0, false
}

func newControl(g *Group, field string, kind Kind, fv reflect.Value) *Control {
	initial := reflect.New(fv.Type()).Elem()
	initial.Set(fv)
	c := &Control{label: field, kind: kind, field: fv, initial: initial}
	g.add(c)
	return c
}

func lookupField(target any, field string) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%w, got %T", ErrTarget, target)
	}
	v = v.Elem()
	sf, ok := v.Type().FieldByName(field)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrNoField, v.Type(), field)
	}
	if !sf.IsExported() {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s is unexported", ErrNoField, v.Type(), field)
	}
	fv, err := v.FieldByIndexErr(sf.Index)
	if err != nil || !fv.CanSet() {
		return reflect.Value{}, fmt.Errorf("%w: %s.%s cannot be set", ErrNoField, v.Type(), field)
	}
	return fv, nil
}
