package trace_models

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidID = errors.New("trace/span id is not a valid hex string")

// TraceID is a 128-bit identifier shared by every span of one trace.
type TraceID struct {
	High uint64
	Low  uint64
}

// SpanID is a 64-bit identifier unique within a trace.
type SpanID uint64

func (t TraceID) String() string {
	if t.High == 0 {
		return strconv.FormatUint(t.Low, 16)
	}
	return fmt.Sprintf("%x%016x", t.High, t.Low)
}

func (t TraceID) IsValid() bool {
	return t.High != 0 || t.Low != 0
}

func TraceIDFromString(s string) (TraceID, error) {
	var t TraceID
	if len(s) == 0 || len(s) > 32 {
		return t, ErrInvalidID
	}
	if len(s) > 16 {
		high, err := strconv.ParseUint(s[:len(s)-16], 16, 64)
		if err != nil {
			return t, ErrInvalidID
		}
		t.High = high
		s = s[len(s)-16:]
	}
	low, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return t, ErrInvalidID
	}
	t.Low = low
	return t, nil
}

func (s SpanID) String() string {
	return strconv.FormatUint(uint64(s), 16)
}

func SpanIDFromString(v string) (SpanID, error) {
	if len(v) == 0 || len(v) > 16 {
		return 0, ErrInvalidID
	}
	id, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return SpanID(id), nil
}
