package market

import (
	"strings"
	"time"
)

// SessionStatus is the set of FX trading sessions open at an instant.
type SessionStatus struct {
	Tokyo         bool
	London        bool
	NewYork       bool
	WeekendClosed bool
}

// Window is an open interval of the UTC day in minutes.
type Window struct {
	Name     string
	OpenMin  int
	CloseMin int
}

var (
	TokyoWindow   = Window{Name: "Tokyo", OpenMin: 0, CloseMin: 9 * 60}
	LondonWindow  = Window{Name: "London", OpenMin: 8 * 60, CloseMin: 17 * 60}
	NewYorkWindow = Window{Name: "New York", OpenMin: 13 * 60, CloseMin: 22 * 60}
)

// weekly FX closure: Friday 22:00 UTC until Sunday 22:00 UTC
const weekendBoundaryMin = 22 * 60

func (w Window) contains(minute int) bool {
	return minute >= w.OpenMin && minute < w.CloseMin
}

// Sessions computes the session flags for t, evaluated in UTC.
func Sessions(t time.Time) SessionStatus {
	u := t.UTC()
	minute := u.Hour()*60 + u.Minute()

	st := SessionStatus{WeekendClosed: weekendClosed(u.Weekday(), minute)}
	if st.WeekendClosed {
		return st
	}
	st.Tokyo = TokyoWindow.contains(minute)
	st.London = LondonWindow.contains(minute)
	st.NewYork = NewYorkWindow.contains(minute)
	return st
}

func weekendClosed(day time.Weekday, minute int) bool {
	switch day {
	case time.Saturday:
		return true
	case time.Friday:
		return minute >= weekendBoundaryMin
	case time.Sunday:
		return minute < weekendBoundaryMin
	}
	return false
}

// Overlap reports whether two or more sessions are open at once.
func (s SessionStatus) Overlap() bool {
	n := 0
	for _, open := range []bool{s.Tokyo, s.London, s.NewYork} {
		if open {
			n++
		}
	}
	return n > 1
}

// String renders a short status line, e.g. "London+New York" or "CLOSED (weekend)".
func (s SessionStatus) String() string {
	if s.WeekendClosed {
		return "CLOSED (weekend)"
	}
	var open []string
	if s.Tokyo {
		open = append(open, TokyoWindow.Name)
	}
	if s.London {
		open = append(open, LondonWindow.Name)
	}
	if s.NewYork {
		open = append(open, NewYorkWindow.Name)
	}
	if len(open) == 0 {
		return "off-session"
	}
	return strings.Join(open, "+")
}
