package usecase

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

type systemScheduler struct{}

// SystemScheduler schedules with time.AfterFunc.
func SystemScheduler() Scheduler { return systemScheduler{} }

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
