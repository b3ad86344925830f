package session

import "log/slog"

// subscriberBuffer is how many events a slow subscriber may fall behind
// before further events are dropped for it.
const subscriberBuffer = 64

// emit records an event and fans it out. Caller holds mu.
func (s *Session) emit(ev Event) {
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}

	if s.journal != nil {
		if err := s.journal.Append(ev); err != nil {
			slog.Error("journal append failed", "event", ev.ID, "action", ev.Action, "error", err)
		}
	}

	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("subscriber lagging, event dropped", "sub_id", id, "event", ev.ID)
		}
	}
}

// Events returns up to limit of the most recent events, oldest first.
// An empty city matches all cities.
func (s *Session) Events(cityKey string, limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Event
	for _, e := range s.events {
		if cityKey == "" || e.City == cityKey {
			matched = append(matched, e)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]Event, len(matched))
	copy(out, matched)
	return out
}

// Subscribe returns a channel receiving every future event.
func (s *Session) Subscribe() (int, <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, subscriberBuffer)
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe stops delivery to the subscription and closes its channel.
func (s *Session) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}
