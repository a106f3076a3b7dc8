package pipeline

// TryLockForTest grabs the run lock directly so tests can simulate a
// concurrent run.
func (p *Pipeline) TryLockForTest() bool {
	ok, err := p.lock.TryLock()
	return err == nil && ok
}

// UnlockForTest releases a lock taken with TryLockForTest.
func (p *Pipeline) UnlockForTest() {
	_ = p.lock.Unlock()
}
