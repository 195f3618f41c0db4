package shortener

import (
	"context"
	"fmt"
	"time"
)

// TimeGenerator derives aliases from the wall clock: milliseconds since the
// Unix epoch, base62 encoded. Calls within the same millisecond return the
// same alias; uniqueness is enforced by the store, not here.
type TimeGenerator struct {
	now func() time.Time
}

// NewTimeGenerator creates a generator backed by time.Now
func NewTimeGenerator() *TimeGenerator {
	return NewTimeGeneratorWithClock(time.Now)
}

// NewTimeGeneratorWithClock creates a generator reading time from the given clock
func NewTimeGeneratorWithClock(now func() time.Time) *TimeGenerator {
	return &TimeGenerator{now: now}
}

// Generate returns the alias for the current clock reading
func (g *TimeGenerator) Generate(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return AliasAt(g.now())
}

// Type returns the generator type
func (g *TimeGenerator) Type() string {
	return TypeTime
}

// AliasAt encodes a point in time as an alias
func AliasAt(t time.Time) (string, error) {
	millis := t.UnixMilli()
	if millis < 0 {
		return "", fmt.Errorf("clock reading %s is before the Unix epoch", t.UTC().Format(time.RFC3339))
	}
	return Encode(uint64(millis)), nil
}

// Timestamp recovers the creation time encoded in an alias produced by TimeGenerator
func Timestamp(alias string) (time.Time, error) {
	millis, err := Decode(alias)
	if err != nil {
		return time.Time{}, err
	}
	if millis > uint64(1<<63-1) {
		return time.Time{}, fmt.Errorf("alias %q is out of time range", alias)
	}
	return time.UnixMilli(int64(millis)).UTC(), nil
}

// Ensure TimeGenerator implements Generator interface
var _ Generator = (*TimeGenerator)(nil)
