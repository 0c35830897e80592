// Package clock implements the spreadsheet date and time accessors on top of
// an injectable time source.
package clock

import (
	"fmt"
	"time"

	coreerr "github.com/aevon-lab/easymoney/internal/core/errors"
)

// Clock reads the current time through nowFn. The zero value uses UTC wall time.
type Clock struct {
	nowFn func() time.Time
}

// New returns a Clock backed by nowFn. A nil nowFn means time.Now in UTC.
func New(nowFn func() time.Time) *Clock {
	return &Clock{nowFn: nowFn}
}

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) *Clock {
	return New(func() time.Time { return t })
}

func (c *Clock) now() time.Time {
	if c == nil || c.nowFn == nil {
		return time.Now().UTC()
	}
	return c.nowFn()
}

// Now returns the current instant as an RFC 3339 timestamp.
func (c *Clock) Now() string {
	return c.now().Format(time.RFC3339)
}

// Today returns the current [year, month, day].
func (c *Clock) Today() []int {
	y, m, d := c.now().Date()
	return []int{y, int(m), d}
}

// Time returns the current [hour, minute, second].
func (c *Clock) Time() []int {
	h, m, s := c.now().Clock()
	return []int{h, m, s}
}

func (c *Clock) Year() int   { return c.now().Year() }
func (c *Clock) Month() int  { return int(c.now().Month()) }
func (c *Clock) Day() int    { return c.now().Day() }
func (c *Clock) Hour() int   { return c.now().Hour() }
func (c *Clock) Minute() int { return c.now().Minute() }
func (c *Clock) Second() int { return c.now().Second() }

// Date returns the Unix-seconds serial of midnight UTC on the given day.
// Out-of-range months and days roll over the way time.Date normalizes them.
func Date(year, month, day int) (int64, error) {
	if year < 0 {
		return 0, fmt.Errorf("DATE: %w: year %d is negative", coreerr.ErrInvalidParameterRange, year)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Unix(), nil
}
