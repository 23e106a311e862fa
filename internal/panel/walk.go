package panel

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/reflectwalk"
)

// BindStruct registers controls for the tagged fields of target (a pointer to a struct), in field order:
//   - numeric fields with `min` and `max` tags (and optional `step`) become numeric controls,
//   - bool fields with a `panel` tag become toggles,
//   - struct fields with range tags or a `panel` tag become nested groups; their untagged fields
//     inherit the range of the parent field (handy for vectors).
//
// The `panel` tag overrides the display name, `panel:"-"` skips the field. Range values accept a "pi" suffix.
func BindStruct(g *Group, target any) error {
	if v := reflect.ValueOf(target); v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrTarget, target)
	}
	return bindStruct(g, target, "")
}

func bindStruct(g *Group, target any, inherit reflect.StructTag) error {
	return reflectwalk.Walk(target, &structBinder{group: g, target: reflect.ValueOf(target).Elem(), inherit: inherit})
}

// structBinder visits the direct fields of one struct: nested structs are bound through a new walk on their own group.
type structBinder struct {
	group   *Group
	target  reflect.Value
	inherit reflect.StructTag
}

func (b *structBinder) Struct(_ reflect.Value) error {
	return nil
}

func (b *structBinder) StructField(sf reflect.StructField, _ reflect.Value) error {
	if !sf.IsExported() {
		return reflectwalk.SkipEntry
	}
	label, hasLabel := sf.Tag.Lookup("panel")
	if label == "-" {
		return reflectwalk.SkipEntry
	}
	if label == "" {
		label = sf.Name
	}
	tag := sf.Tag
	if _, ok := tag.Lookup("min"); !ok {
		tag = b.inherit
	}
	_, hasRange := tag.Lookup("min")
	ptr := b.target.Addr().Interface()

	var c *Control
	var err error
	switch kind := sf.Type.Kind(); {
	case kind == reflect.Bool && (hasLabel || b.inherit != ""):
		c, err = BindBoolean(b.group, ptr, sf.Name)
	case kind == reflect.Struct && (hasLabel || hasRange):
		err = bindStruct(b.group.Group(label), b.target.FieldByIndex(sf.Index).Addr().Interface(), tag)
	case hasRange && kind != reflect.Struct && kind != reflect.Bool:
		var lo, hi, step float64
		if lo, err = tagFloat(tag, "min"); err == nil {
			if hi, err = tagFloat(tag, "max"); err == nil {
				step, err = tagFloat(tag, "step")
			}
		}
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrDomain, sf.Name, err)
		}
		c, err = BindNumeric(b.group, ptr, sf.Name, lo, hi, step)
	}
	if err != nil {
		return err
	}
	if c != nil {
		c.Name(label)
	}
	return reflectwalk.SkipEntry
}

// tagFloat parses a range tag. Missing tags are 0, a "pi" suffix multiplies by Pi ("2pi", "pi").
func tagFloat(tag reflect.StructTag, key string) (float64, error) {
	s, ok := tag.Lookup(key)
	if !ok || s == "" {
		return 0, nil
	}
	mul := 1.
	if k, found := strings.CutSuffix(s, "pi"); found {
		mul, s = math.Pi, k
		if s == "" || s == "-" {
			s += "1"
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("tag %s:%q: %w", key, s, err)
	}
	return f * mul, nil
}
