package services

import "time"

// Clock позволяет подменять текущее время в тестах.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
