package inspector

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Widget selects how a field is drawn.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetSkip
)

// Tag is a parsed `inspect` struct tag, e.g. `inspect:"bar,min:-2,max:2"`
// or `inspect:"label,fmt:%.1f"`.
type Tag struct {
	Widget   Widget
	Min, Max float32
	Format   string
}

// ParseTag parses an inspect tag. Bars default to the range [0, 1];
// unknown options and malformed numbers are ignored.
func ParseTag(raw string) Tag {
	t := Tag{Max: 1}
	parts := strings.Split(raw, ",")

	switch strings.TrimSpace(parts[0]) {
	case "label":
		t.Widget = WidgetLabel
	case "bar":
		t.Widget = WidgetBar
	case "skip":
		t.Widget = WidgetSkip
	}

	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		switch key {
		case "min":
			if v, err := strconv.ParseFloat(val, 32); err == nil {
				t.Min = float32(v)
			}
		case "max":
			if v, err := strconv.ParseFloat(val, 32); err == nil {
				t.Max = float32(v)
			}
		case "fmt":
			t.Format = val
		}
	}
	return t
}

// Field is one drawable value pulled from a component.
type Field struct {
	Name  string
	Value any
	Tag   Tag
}

// Text formats the value with the tag's format, or %.2f for floats.
func (f Field) Text() string {
	if f.Tag.Format != "" {
		return fmt.Sprintf(f.Tag.Format, f.Value)
	}
	switch v := f.Value.(type) {
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprint(f.Value)
}

// Float returns the value as float32 when it is numeric.
func (f Field) Float() (float32, bool) {
	rv := reflect.ValueOf(f.Value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return float32(rv.Float()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float32(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float32(rv.Uint()), true
	}
	return 0, false
}

// ExtractFields lists the exported fields of a component struct. Untagged
// nested structs are flattened with dotted names.
func ExtractFields(component any) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return appendFields(nil, "", v)
}

func appendFields(out []Field, prefix string, v reflect.Value) []Field {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		raw, tagged := sf.Tag.Lookup("inspect")
		fv := v.Field(i)
		if !tagged && fv.Kind() == reflect.Struct {
			out = appendFields(out, prefix+sf.Name+".", fv)
			continue
		}

		tag := ParseTag(raw)
		switch tag.Widget {
		case WidgetSkip:
			continue
		case WidgetAuto:
			tag.Widget = WidgetLabel
		}
		out = append(out, Field{Name: prefix + sf.Name, Value: fv.Interface(), Tag: tag})
	}
	return out
}
