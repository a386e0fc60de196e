package timer

import "time"

// Ticker is the clock driving a Session. It starts stopped.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type clockTicker struct {
	t *time.Ticker
}

// NewClockTicker returns a stopped wall-clock Ticker
func NewClockTicker(d time.Duration) Ticker {
	t := time.NewTicker(d)
	t.Stop()
	return &clockTicker{t: t}
}

func (c *clockTicker) C() <-chan time.Time {
	return c.t.C
}

func (c *clockTicker) Reset(d time.Duration) {
	c.t.Reset(d)
}

func (c *clockTicker) Stop() {
	c.t.Stop()
}
