package room

// StartInterview saves the current code, installs starter as the room
// code and records the interview. A second start while one is running is
// rejected so the saved code is never overwritten.
func (r *Room) StartInterview(iv Interview, starter string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview != nil {
		return ErrInterviewActive
	}

	prev := r.code
	r.previousCode = &prev
	r.code = starter
	r.interview = &iv
	return nil
}

// EndInterview clears the interview and puts back the code saved at
// start. It returns the restored code.
func (r *Room) EndInterview() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview == nil {
		return r.code, ErrNoInterview
	}
	if r.previousCode != nil {
		r.code = *r.previousCode
		r.previousCode = nil
	}
	r.interview = nil
	return r.code, nil
}

// Interview returns a copy of the running interview, if any.
func (r *Room) Interview() (Interview, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.interview == nil {
		return Interview{}, false
	}
	return *r.interview, true
}

// InterviewStartedAt reports whether the interview that started at t is
// still the one running.
func (r *Room) InterviewStartedAt(t int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interview != nil && r.interview.StartedAt.UnixNano() == t
}
