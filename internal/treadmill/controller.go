package treadmill

import (
	"log"
	"sync"

	"github.com/lowaak/treadmill-timer/internal/bt"
	"github.com/lowaak/treadmill-timer/internal/events"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/timer"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

const writeQueueSize = 16

// Controller mirrors the workout onto an FTMS treadmill. Control point
// writes are queued and issued in order by a single goroutine.
type Controller struct {
	logger *log.Logger
	device bt.Device

	writes    chan []byte
	dataEvent *events.ChannelEvent[TreadmillData]

	mu              sync.Mutex
	started         bool
	controlAcquired bool

	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

func NewController(logger *log.Logger, device bt.Device) *Controller {
	if logger == nil {
		panic("Controller: logger cannot be nil")
	}
	if device == nil {
		panic("Controller: device cannot be nil")
	}
	return &Controller{
		logger:    logger,
		device:    device,
		writes:    make(chan []byte, writeQueueSize),
		dataEvent: events.NewChannelEvent[TreadmillData](true),
		doneChan:  make(chan struct{}),
	}
}

// Start subscribes to the control point and treadmill data, then asks the
// treadmill for control. A treadmill without data notifications is still driven.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if err := c.device.EnableNotifications(ServiceUUIDFTMS, CharUUIDFTMSControlPoint, c.handleControlPoint); err != nil {
		return err
	}
	if err := c.device.EnableNotifications(ServiceUUIDFTMS, CharUUIDTreadmillData, c.handleTreadmillData); err != nil {
		c.logger.Printf("Treadmill: Treadmill data notifications unavailable: %v", err)
	}

	c.wg.Add(1)
	go_func_utils.SafeGo(c.logger, func() { c.runWriter() })

	c.enqueue(EncodeRequestControl())
	c.logger.Printf("Treadmill: Requesting control of %s", c.device.GetAddressString())
	return nil
}

// HandleEvent translates a timer event into control point commands
func (c *Controller) HandleEvent(ev timer.Event) {
	switch ev.Effect.Kind {
	case timer.EffectWorkoutStarted:
		c.enqueue(EncodeStartOrResume())
		c.sendTargets(ev.Effect.Interval, ev.Settings.Unit)
	case timer.EffectIntervalChanged, timer.EffectIntervalRewound:
		c.sendTargets(ev.Effect.Interval, ev.Settings.Unit)
	case timer.EffectPaused:
		c.enqueue(EncodeStopOrPause(true))
	case timer.EffectResumed:
		c.enqueue(EncodeStartOrResume())
	case timer.EffectWorkoutCompleted, timer.EffectWorkoutStopped:
		c.enqueue(EncodeStopOrPause(false))
	}
}

func (c *Controller) sendTargets(in workout.Interval, unit workout.SpeedUnit) {
	c.enqueue(EncodeSetTargetSpeed(workout.ConvertSpeed(in.Speed, unit, workout.UnitKmh)))
	c.enqueue(EncodeSetTargetInclination(in.Incline))
}

// ListenToData registers ch for decoded treadmill data. The returned func unregisters.
func (c *Controller) ListenToData(ch chan<- TreadmillData) func() {
	return c.dataEvent.Listen(ch)
}

// ControlAcquired reports whether the treadmill accepted the control request
func (c *Controller) ControlAcquired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlAcquired
}

// Shutdown flushes queued writes and unsubscribes
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.doneChan)
		c.wg.Wait()

		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		if started {
			go_func_utils.SafeCall(c.logger, "Treadmill: disable control point", func() error {
				return c.device.DisableNotifications(ServiceUUIDFTMS, CharUUIDFTMSControlPoint)
			})
			go_func_utils.SafeCall(c.logger, "Treadmill: disable treadmill data", func() error {
				return c.device.DisableNotifications(ServiceUUIDFTMS, CharUUIDTreadmillData)
			})
		}
		c.logger.Printf("Treadmill: Shutdown complete")
	})
}

func (c *Controller) enqueue(data []byte) {
	select {
	case <-c.doneChan:
		return
	default:
	}
	select {
	case c.writes <- data:
	default:
		c.logger.Printf("Treadmill: Write queue full, dropping %s", DescribeCommand(data))
	}
}

func (c *Controller) runWriter() {
	defer c.wg.Done()
	for {
		select {
		case data := <-c.writes:
			c.write(data)
		case <-c.doneChan:
			for {
				select {
				case data := <-c.writes:
					c.write(data)
				default:
					return
				}
			}
		}
	}
}

func (c *Controller) write(data []byte) {
	if err := c.device.WriteCharacteristic(ServiceUUIDFTMS, CharUUIDFTMSControlPoint, data); err != nil {
		c.logger.Printf("Treadmill: %s failed: %v", DescribeCommand(data), err)
		return
	}
	c.logger.Printf("Treadmill: Sent %s", DescribeCommand(data))
}

func (c *Controller) handleControlPoint(buf []byte) {
	resp, err := ParseControlPointResponse(buf)
	if err != nil {
		c.logger.Printf("FTMS Control Point: %v", err)
		return
	}
	c.logger.Printf("FTMS Control Point: %s", resp)

	if resp.RequestOpCode != OpCodeRequestControl {
		return
	}
	c.mu.Lock()
	c.controlAcquired = resp.Success()
	c.mu.Unlock()
	if resp.Result == ResultControlNotPermitted {
		c.logger.Printf("Treadmill: Treadmill rejected control request")
	}
}

func (c *Controller) handleTreadmillData(buf []byte) {
	data, err := ParseTreadmillData(buf)
	if err != nil {
		c.logger.Printf("Treadmill: %v", err)
		return
	}
	c.dataEvent.Notify(*data)
}
