package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Number is the set of value types a metric column can hold.
type Number interface {
	~int64 | ~float64
}

// Optional holds a metric value that a source may not report.
// The zero value is absent, which is distinct from a present zero.
type Optional[T Number] struct {
	value   T
	present bool
}

// Some returns a present value.
func Some[T Number](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Absent returns an absent value.
func Absent[T Number]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nil-able pointer into an Optional.
func FromPtr[T Number](v *T) Optional[T] {
	if v == nil {
		return Optional[T]{}
	}
	return Some(*v)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Present reports whether a value was recorded.
func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) String() string {
	if !o.present {
		return "absent"
	}
	return fmt.Sprint(o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
