package session

// Settings returns a copy of the current settings.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// update applies fn to a copy of the settings and keeps the result only if
// it validates. Changes take effect from the next turn.
func (s *Session) update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.settings, err
	}
	s.settings = next
	return next, nil
}

func (s *Session) SetTemperature(v float64) error {
	_, err := s.update(func(st *Settings) { st.Temperature = v })
	if err == nil {
		s.log.Info("changing temperature", "value", v)
	}
	return err
}

func (s *Session) SetTopK(k int) error {
	_, err := s.update(func(st *Settings) { st.TopK = k })
	if err == nil {
		s.log.Info("changing top_k", "value", k)
	}
	return err
}

func (s *Session) SetTopP(p float64) error {
	_, err := s.update(func(st *Settings) { st.TopP = p })
	if err == nil {
		s.log.Info("changing top_p", "value", p)
	}
	return err
}

// ToggleNucleus flips between nucleus and top-k sampling and returns the new
// state.
func (s *Session) ToggleNucleus() bool {
	st, _ := s.update(func(st *Settings) { st.Nucleus = !st.Nucleus })
	if st.Nucleus {
		s.log.Info("enabled nucleus sampling")
	} else {
		s.log.Info("disabled nucleus sampling")
	}
	return st.Nucleus
}

func (s *Session) SetGreedy(on bool) {
	_, _ = s.update(func(st *Settings) { st.Greedy = on })
}

func (s *Session) SetOutputLength(n int) error {
	_, err := s.update(func(st *Settings) { st.OutputLength = n })
	if err == nil {
		s.log.Info("changing output_length", "value", n)
	}
	return err
}

func (s *Session) SetBatchSize(n int) error {
	_, err := s.update(func(st *Settings) { st.BatchSize = n })
	return err
}

// SetPastLength changes the history capacity, evicting the oldest entries at
// once when it shrinks. It returns the number of entries evicted.
func (s *Session) SetPastLength(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return 0, ErrBusy
	}
	next := s.settings
	next.PastLength = n
	if err := next.Validate(); err != nil {
		return 0, err
	}
	evicted, err := s.history.SetCapacity(n)
	if err != nil {
		return 0, err
	}
	s.settings = next
	s.log.Info("changing past_length", "value", n, "evicted", evicted)
	return evicted, nil
}
