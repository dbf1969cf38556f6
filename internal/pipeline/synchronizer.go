package pipeline

import "deltae/internal/y4m"

// PairFunc receives matched frames in arrival order.
type PairFunc func(ref, rec *y4m.Frame) error

// Synchronizer pairs frames from two independently paced streams. At most one
// of its queues is non-empty after any call returns. Queued frames stay raw;
// conversion is left to the PairFunc.
type Synchronizer struct {
	pair PairFunc
	ref  []*y4m.Frame
	rec  []*y4m.Frame
}

// NewSynchronizer returns a Synchronizer that calls pair for every match.
func NewSynchronizer(pair PairFunc) *Synchronizer {
	return &Synchronizer{pair: pair}
}

// OnReference queues a reference frame and pairs it when a reconstructed
// frame is waiting.
func (s *Synchronizer) OnReference(f *y4m.Frame) error {
	s.ref = append(s.ref, f)
	return s.match()
}

// OnReconstructed queues a reconstructed frame and pairs it when a reference
// frame is waiting.
func (s *Synchronizer) OnReconstructed(f *y4m.Frame) error {
	s.rec = append(s.rec, f)
	return s.match()
}

// Pending returns the number of frames waiting on each side.
func (s *Synchronizer) Pending() (ref, rec int) {
	return len(s.ref), len(s.rec)
}

func (s *Synchronizer) match() error {
	for len(s.ref) > 0 && len(s.rec) > 0 {
		ref, rec := s.ref[0], s.rec[0]
		s.ref[0], s.rec[0] = nil, nil
		s.ref, s.rec = s.ref[1:], s.rec[1:]
		if s.pair == nil {
			continue
		}
		if err := s.pair(ref, rec); err != nil {
			return err
		}
	}
	return nil
}

// Drop discards every queued frame.
func (s *Synchronizer) Drop() {
	clear(s.ref)
	clear(s.rec)
	s.ref, s.rec = s.ref[:0], s.rec[:0]
}
