package schedule

import "fmt"

// Block is a contiguous range of bookable start times, [Open, Close).
type Block struct {
	Name  string
	Open  TimeOfDay
	Close TimeOfDay
}

// DailySchedule is the same set of start times every day. It does not
// consider existing bookings.
type DailySchedule struct {
	blocks []Block
	step   int
	slots  []TimeOfDay
	index  map[TimeOfDay]struct{}
}

// NewDailySchedule expands blocks into slots stepMinutes apart.
func NewDailySchedule(stepMinutes int, blocks ...Block) (*DailySchedule, error) {
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("schedule: step must be positive, got %d", stepMinutes)
	}
	s := &DailySchedule{blocks: blocks, step: stepMinutes, index: map[TimeOfDay]struct{}{}}
	for _, b := range blocks {
		if !b.Open.Before(b.Close) {
			return nil, fmt.Errorf("schedule: block %q closes before it opens", b.Name)
		}
		for cur := b.Open; cur.Before(b.Close); {
			end, err := cur.Add(stepMinutes)
			if err != nil || b.Close.Before(end) {
				break
			}
			if _, dup := s.index[cur]; !dup {
				s.slots = append(s.slots, cur)
				s.index[cur] = struct{}{}
			}
			cur = end
		}
	}
	return s, nil
}

// DefaultDailySchedule is the clinic's morning and afternoon sessions:
// 09:00 to 11:30 and 14:00 to 16:30 in 30 minute steps.
func DefaultDailySchedule() *DailySchedule {
	s, err := NewDailySchedule(30,
		Block{Name: "morning", Open: MustTimeOfDay("09:00"), Close: MustTimeOfDay("12:00")},
		Block{Name: "afternoon", Open: MustTimeOfDay("14:00"), Close: MustTimeOfDay("17:00")},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// Slots returns a copy of all start times in order.
func (s *DailySchedule) Slots() []TimeOfDay {
	out := make([]TimeOfDay, len(s.slots))
	copy(out, s.slots)
	return out
}

// BlockNames returns the block names in schedule order.
func (s *DailySchedule) BlockNames() []string {
	names := make([]string, 0, len(s.blocks))
	for _, b := range s.blocks {
		names = append(names, b.Name)
	}
	return names
}

// BlockSlots returns the start times that fall within the named block.
func (s *DailySchedule) BlockSlots(name string) []TimeOfDay {
	var out []TimeOfDay
	for _, b := range s.blocks {
		if b.Name != name {
			continue
		}
		for _, slot := range s.slots {
			if !slot.Before(b.Open) && slot.Before(b.Close) {
				out = append(out, slot)
			}
		}
	}
	return out
}

// Contains reports whether t is a bookable start time.
func (s *DailySchedule) Contains(t TimeOfDay) bool {
	_, ok := s.index[t]
	return ok
}
