package panel

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

var (
	ErrTarget    = errors.New("panel: target must be a non-nil pointer to a struct")
	ErrNoField   = errors.New("panel: no such field")
	ErrFieldType = errors.New("panel: incompatible field type")
	ErrDomain    = errors.New("panel: invalid domain")
	ErrChoice    = errors.New("panel: invalid choice")
	ErrValue     = errors.New("panel: invalid value")
)

// Kind is the type of domain of a control.
type Kind int

const (
	KindNumber Kind = iota // Closed numeric range with step
	KindBool               // Toggle
	KindChoice             // Enumerated labels mapped to values
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

type choiceEntry struct {
	label string
	value reflect.Value
}

// Control is a binding between a panel widget and a field of a live object.
type Control struct {
	group          *Group
	label          string
	kind           Kind
	field          reflect.Value // Addressable and settable
	min, max, step float64
	choices        []choiceEntry
	initial        reflect.Value // Copy of the field at bind time
	onChange       []func(value any)
}

// Kind returns the domain type of the control.
func (c *Control) Kind() Kind { return c.kind }

// Label returns the display name (the field name unless overridden).
func (c *Control) Label() string { return c.label }

// Name overrides the display name.
func (c *Control) Name(label string) *Control {
	c.label = label
	return c
}

// Path is the slash separated path of the control, usable with Registry.Find.
func (c *Control) Path() string {
	if p := c.group.Path(); p != "" {
		return p + "/" + c.label
	}
	return c.label
}

// Range returns the numeric domain (zeros for other kinds).
func (c *Control) Range() (lo, hi, step float64) {
	return c.min, c.max, c.step
}

// Labels returns the choice labels in registration order (nil for other kinds).
func (c *Control) Labels() []string {
	var res []string
	for _, ch := range c.choices {
		res = append(res, ch.label)
	}
	return res
}

// OnChange registers a callback that runs synchronously after every write-through, in registration order.
func (c *Control) OnChange(fn func(value any)) *Control {
	c.onChange = append(c.onChange, fn)
	return c
}

// Value reads the bound field.
func (c *Control) Value() any {
	return c.field.Interface()
}

// Float reads a numeric field as float64.
func (c *Control) Float() float64 {
	switch c.field.Kind() {
	case reflect.Float32, reflect.Float64:
		return c.field.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(c.field.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(c.field.Uint())
	default:
		return math.NaN()
	}
}

// Set writes v to the bound field. Numbers are clamped to [min,max] (never quantized to step),
// booleans must be bool and choices must equal one of the registered values.
func (c *Control) Set(v any) error {
	switch c.kind {
	case KindNumber:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) {
			return fmt.Errorf("%w: %v (%T) for numeric control %q", ErrValue, v, v, c.label)
		}
		c.setFloat(math.Max(c.min, math.Min(c.max, f)))
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %v (%T) for boolean control %q", ErrValue, v, v, c.label)
		}
		c.field.SetBool(b)
	case KindChoice:
		i := c.indexOf(reflect.ValueOf(v))
		if i < 0 {
			return fmt.Errorf("%w: %v is not an option of %q", ErrChoice, v, c.label)
		}
		c.field.Set(c.choices[i].value)
	}
	c.changed()
	return nil
}

// Select assigns the value registered under label (choice controls only).
func (c *Control) Select(label string) error {
	if c.kind != KindChoice {
		return fmt.Errorf("%w: %q is not a choice control", ErrChoice, c.label)
	}
	for _, ch := range c.choices {
		if ch.label == label {
			c.field.Set(ch.value)
			c.changed()
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not an option of %q", ErrChoice, label, c.label)
}

// Selected returns the label of the current choice, or "" if the field holds an unregistered value.
func (c *Control) Selected() string {
	if i := c.indexOf(c.field); i >= 0 {
		return c.choices[i].label
	}
	return ""
}

// Step nudges the control as a widget would: numbers move by dir*scale steps, booleans toggle
// and choices cycle in registration order.
func (c *Control) Step(dir int, scale float64) {
	if dir == 0 {
		return
	}
	switch c.kind {
	case KindNumber:
		step := c.step
		if step == 0 {
			step = (c.max - c.min) / 100
		}
		next := c.Float() + float64(dir)*step*scale
		if step > 0 { // Snap to the step grid, as the widget would
			next = c.min + math.Round((next-c.min)/step)*step
		}
		_ = c.Set(next)
	case KindBool:
		_ = c.Set(!c.field.Bool())
	case KindChoice:
		n := len(c.choices)
		i := c.indexOf(c.field)
		if i < 0 {
			i = 0
		} else {
			i = ((i+dir)%n + n) % n
		}
		c.field.Set(c.choices[i].value)
		c.changed()
	}
}

// Revert restores the value captured at bind time.
func (c *Control) Revert() {
	c.field.Set(c.initial)
	c.changed()
}

// String formats the current value for display.
func (c *Control) String() string {
	switch c.kind {
	case KindNumber:
		return strconv.FormatFloat(c.Float(), 'f', decimals(c.step), 64)
	case KindBool:
		return strconv.FormatBool(c.field.Bool())
	default:
		if s := c.Selected(); s != "" {
			return s
		}
		return "?"
	}
}

func (c *Control) changed() {
	v := c.Value()
	for _, fn := range c.onChange {
		fn(v)
	}
}

func (c *Control) setFloat(f float64) {
	switch c.field.Kind() {
	case reflect.Float32, reflect.Float64:
		c.field.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c.field.SetInt(int64(math.Round(f)))
	default:
		c.field.SetUint(uint64(math.Round(f)))
	}
}

func (c *Control) indexOf(v reflect.Value) int {
	if !v.IsValid() {
		return -1
	}
	for i, ch := range c.choices {
		if valuesEqual(ch.value, v) {
			return i
		}
	}
	return -1
}

func valuesEqual(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		if !b.Type().AssignableTo(a.Type()) {
			return false
		}
		conv := reflect.New(a.Type()).Elem()
		conv.Set(b)
		b = conv
	}
	if a.Comparable() && b.Comparable() {
		return a.Equal(b)
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

// decimals is the number of decimals needed to display multiples of step.
func decimals(step float64) int {
	if step <= 0 || step >= 1 {
		return 2
	}
	d := int(math.Ceil(-math.Log10(step) - 1e-9))
	return max(0, min(6, d))
}
