package main

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

var (
	_ Clocker       = (*Clock)(nil)
	_ zapcore.Clock = (*LogClock)(nil)
)

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// Clock reads the system time in the location picked at start.
type Clock struct {
	tz *time.Location
}

// NewClock returns a Clock in UTC for production and in Local time otherwise.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// BookTimestamp is the value written into created_at and updated_at.
// It is always UTC and cut to microseconds, the finest precision every
// supported store keeps.
func BookTimestamp(ck Clocker) time.Time {
	return ck.Now().UTC().Truncate(time.Microsecond)
}

// Uptime formats the minutes elapsed since started.
func Uptime(ck Clocker, started time.Time) string {
	return fmt.Sprintf("%.0f mins", ck.Now().Sub(started).Minutes())
}

// LogClock lets the logger share the application clock.
type LogClock struct {
	clock Clocker
}

func NewLogClock(ck Clocker) *LogClock {
	return &LogClock{ck}
}

func (lc *LogClock) Now() time.Time {
	return lc.clock.Now()
}

func (lc *LogClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
