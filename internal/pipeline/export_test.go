package pipeline

import "time"

// SetClock overrides the pipeline's time source for window tests.
func (p *Pipeline) SetClock(clock func() time.Time) {
	p.clock = clock
}
