package gui

import "time"

// Status is a Message that distinguishes a standing status line from a
// transient flash that expires after a delay (the line the driver uses
// for "paused" and the perf readout, plus one-shot toasts).
type Status struct {
	*Message

	flash    string
	standing string
	deadline time.Time
}

func (s *Status) SetFlashMsg(m string, ttl time.Duration) {
	s.flash = m
	s.deadline = time.Now().Add(ttl)
}

func (s *Status) SetStatusMsg(m string) {
	s.standing = m
	s.flash = ""
	s.deadline = time.Time{}
}

func (s *Status) Update(v *View) {
	if s.flash != "" && time.Now().After(s.deadline) {
		s.flash = ""
	}
	if s.flash != "" {
		s.Text = s.flash
	} else {
		s.Text = s.standing
	}
	s.Message.Update(v)
}
