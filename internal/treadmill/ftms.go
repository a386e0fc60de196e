// Package treadmill drives an FTMS treadmill from timer events.
package treadmill

import (
	"errors"
	"fmt"
	"math"
)

// Fitness Machine Service UUIDs
const (
	ServiceUUIDFTMS          = "00001826-0000-1000-8000-00805f9b34fb"
	CharUUIDTreadmillData    = "00002acd-0000-1000-8000-00805f9b34fb"
	CharUUIDFTMSControlPoint = "00002ad9-0000-1000-8000-00805f9b34fb"
)

// Control point op codes
const (
	OpCodeRequestControl       byte = 0x00
	OpCodeReset                byte = 0x01
	OpCodeSetTargetSpeed       byte = 0x02
	OpCodeSetTargetInclination byte = 0x03
	OpCodeStartOrResume        byte = 0x07
	OpCodeStopOrPause          byte = 0x08
	OpCodeResponseCode         byte = 0x80
	StopOrPauseParamStop       byte = 0x01
	StopOrPauseParamPause      byte = 0x02
	ResultSuccess              byte = 0x01
	ResultOpCodeNotSupported   byte = 0x02
	ResultInvalidParameter     byte = 0x03
	ResultOperationFailed      byte = 0x04
	ResultControlNotPermitted  byte = 0x05
)

const (
	speedResolutionKmh           = 0.01
	inclinationResolutionPercent = 0.1
)

var ErrShortBuffer = errors.New("buffer too short")

func EncodeRequestControl() []byte {
	return []byte{OpCodeRequestControl}
}

func EncodeReset() []byte {
	return []byte{OpCodeReset}
}

func EncodeStartOrResume() []byte {
	return []byte{OpCodeStartOrResume}
}

// EncodeStopOrPause builds the stop (pause=false) or pause command
func EncodeStopOrPause(pause bool) []byte {
	param := StopOrPauseParamStop
	if pause {
		param = StopOrPauseParamPause
	}
	return []byte{OpCodeStopOrPause, param}
}

// EncodeSetTargetSpeed takes km/h. The wire value is uint16 in 0.01 km/h.
func EncodeSetTargetSpeed(kmh float64) []byte {
	raw := math.Round(kmh / speedResolutionKmh)
	if raw < 0 {
		raw = 0
	}
	if raw > math.MaxUint16 {
		raw = math.MaxUint16
	}
	v := uint16(raw)
	return []byte{OpCodeSetTargetSpeed, byte(v), byte(v >> 8)}
}

// EncodeSetTargetInclination takes percent. The wire value is sint16 in 0.1 %.
func EncodeSetTargetInclination(percent float64) []byte {
	raw := math.Round(percent / inclinationResolutionPercent)
	if raw < math.MinInt16 {
		raw = math.MinInt16
	}
	if raw > math.MaxInt16 {
		raw = math.MaxInt16
	}
	v := uint16(int16(raw))
	return []byte{OpCodeSetTargetInclination, byte(v), byte(v >> 8)}
}

// ControlPointResponse is an indication from the control point
type ControlPointResponse struct {
	RequestOpCode byte
	Result        byte
}

func (r ControlPointResponse) Success() bool {
	return r.Result == ResultSuccess
}

func (r ControlPointResponse) String() string {
	return fmt.Sprintf("%s -> %s", OpCodeName(r.RequestOpCode), ResultName(r.Result))
}

// ParseControlPointResponse decodes [0x80, RequestOpCode, ResultCode, ...]
func ParseControlPointResponse(buf []byte) (ControlPointResponse, error) {
	if len(buf) < 3 {
		return ControlPointResponse{}, fmt.Errorf("control point response: %w: %d bytes", ErrShortBuffer, len(buf))
	}
	if buf[0] != OpCodeResponseCode {
		return ControlPointResponse{}, fmt.Errorf("control point response: unexpected op code 0x%02X", buf[0])
	}
	return ControlPointResponse{RequestOpCode: buf[1], Result: buf[2]}, nil
}

func OpCodeName(op byte) string {
	switch op {
	case OpCodeRequestControl:
		return "Request Control"
	case OpCodeReset:
		return "Reset"
	case OpCodeSetTargetSpeed:
		return "Set Target Speed"
	case OpCodeSetTargetInclination:
		return "Set Target Inclination"
	case OpCodeStartOrResume:
		return "Start/Resume"
	case OpCodeStopOrPause:
		return "Stop/Pause"
	default:
		return fmt.Sprintf("OpCode 0x%02X", op)
	}
}

func ResultName(result byte) string {
	switch result {
	case ResultSuccess:
		return "Success"
	case ResultOpCodeNotSupported:
		return "Op Code Not Supported"
	case ResultInvalidParameter:
		return "Invalid Parameter"
	case ResultOperationFailed:
		return "Operation Failed"
	case ResultControlNotPermitted:
		return "Control Not Permitted"
	default:
		return fmt.Sprintf("Result 0x%02X", result)
	}
}

// DescribeCommand renders a control point write for logs
func DescribeCommand(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	switch data[0] {
	case OpCodeSetTargetSpeed:
		if len(data) >= 3 {
			raw := uint16(data[1]) | uint16(data[2])<<8
			return fmt.Sprintf("Set Target Speed: %.2f km/h", float64(raw)*speedResolutionKmh)
		}
		return "Set Target Speed (malformed)"
	case OpCodeSetTargetInclination:
		if len(data) >= 3 {
			raw := int16(uint16(data[1]) | uint16(data[2])<<8)
			return fmt.Sprintf("Set Target Inclination: %.1f%%", float64(raw)*inclinationResolutionPercent)
		}
		return "Set Target Inclination (malformed)"
	case OpCodeStopOrPause:
		if len(data) >= 2 && data[1] == StopOrPauseParamPause {
			return "Pause"
		}
		return "Stop"
	default:
		return OpCodeName(data[0])
	}
}

// TreadmillData holds the fields of a Treadmill Data notification that were present
type TreadmillData struct {
	HasInstantaneousSpeed bool
	HasAverageSpeed       bool
	HasTotalDistance      bool
	HasInclination        bool
	HasElevationGain      bool
	HasInstantaneousPace  bool
	HasAveragePace        bool
	HasExpendedEnergy     bool
	HasHeartRate          bool
	HasMetabolicEquiv     bool
	HasElapsedTime        bool
	HasRemainingTime      bool
	HasForceAndPower      bool

	InstantaneousSpeedKmh float64
	AverageSpeedKmh       float64
	TotalDistanceMeters   uint32
	InclinationPercent    float64
	RampAngleDegrees      float64
	PositiveElevationM    float64
	NegativeElevationM    float64
	InstantaneousPaceKmMn float64
	AveragePaceKmMn       float64
	TotalEnergyKcal       uint16
	EnergyPerHourKcal     uint16
	EnergyPerMinuteKcal   uint8
	HeartRateBpm          uint8
	MetabolicEquivalent   float64
	ElapsedTimeSeconds    uint16
	RemainingTimeSeconds  uint16
	ForceOnBeltNewtons    int16
	PowerOutputWatts      int16
}

// Treadmill Data flag bits
const (
	tdFlagMoreData          = 1 << 0 // inverted: 0 means Instantaneous Speed is present
	tdFlagAverageSpeed      = 1 << 1
	tdFlagTotalDistance     = 1 << 2
	tdFlagInclination       = 1 << 3
	tdFlagElevationGain     = 1 << 4
	tdFlagInstantaneousPace = 1 << 5
	tdFlagAveragePace       = 1 << 6
	tdFlagExpendedEnergy    = 1 << 7
	tdFlagHeartRate         = 1 << 8
	tdFlagMetabolicEquiv    = 1 << 9
	tdFlagElapsedTime       = 1 << 10
	tdFlagRemainingTime     = 1 << 11
	tdFlagForceAndPower     = 1 << 12
)

type reader struct {
	buf    []byte
	offset int
	err    error
}

func (r *reader) need(n int, field string) bool {
	if r.err != nil {
		return false
	}
	if r.offset+n > len(r.buf) {
		r.err = fmt.Errorf("treadmill data: %w for %s at offset %d", ErrShortBuffer, field, r.offset)
		return false
	}
	return true
}

func (r *reader) uint8(field string) uint8 {
	if !r.need(1, field) {
		return 0
	}
	v := r.buf[r.offset]
	r.offset++
	return v
}

func (r *reader) uint16(field string) uint16 {
	if !r.need(2, field) {
		return 0
	}
	v := uint16(r.buf[r.offset]) | uint16(r.buf[r.offset+1])<<8
	r.offset += 2
	return v
}

func (r *reader) int16(field string) int16 {
	return int16(r.uint16(field))
}

func (r *reader) uint24(field string) uint32 {
	if !r.need(3, field) {
		return 0
	}
	v := uint32(r.buf[r.offset]) | uint32(r.buf[r.offset+1])<<8 | uint32(r.buf[r.offset+2])<<16
	r.offset += 3
	return v
}

// ParseTreadmillData decodes the Treadmill Data characteristic
func ParseTreadmillData(buf []byte) (*TreadmillData, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("treadmill data: %w: %d bytes", ErrShortBuffer, len(buf))
	}
	flags := uint16(buf[0]) | uint16(buf[1])<<8
	r := &reader{buf: buf, offset: 2}

	d := &TreadmillData{
		HasInstantaneousSpeed: flags&tdFlagMoreData == 0,
		HasAverageSpeed:       flags&tdFlagAverageSpeed != 0,
		HasTotalDistance:      flags&tdFlagTotalDistance != 0,
		HasInclination:        flags&tdFlagInclination != 0,
		HasElevationGain:      flags&tdFlagElevationGain != 0,
		HasInstantaneousPace:  flags&tdFlagInstantaneousPace != 0,
		HasAveragePace:        flags&tdFlagAveragePace != 0,
		HasExpendedEnergy:     flags&tdFlagExpendedEnergy != 0,
		HasHeartRate:          flags&tdFlagHeartRate != 0,
		HasMetabolicEquiv:     flags&tdFlagMetabolicEquiv != 0,
		HasElapsedTime:        flags&tdFlagElapsedTime != 0,
		HasRemainingTime:      flags&tdFlagRemainingTime != 0,
		HasForceAndPower:      flags&tdFlagForceAndPower != 0,
	}

	if d.HasInstantaneousSpeed {
		d.InstantaneousSpeedKmh = float64(r.uint16("instantaneous speed")) * speedResolutionKmh
	}
	if d.HasAverageSpeed {
		d.AverageSpeedKmh = float64(r.uint16("average speed")) * speedResolutionKmh
	}
	if d.HasTotalDistance {
		d.TotalDistanceMeters = r.uint24("total distance")
	}
	if d.HasInclination {
		d.InclinationPercent = float64(r.int16("inclination")) * inclinationResolutionPercent
		d.RampAngleDegrees = float64(r.int16("ramp angle")) * 0.1
	}
	if d.HasElevationGain {
		d.PositiveElevationM = float64(r.uint16("positive elevation gain")) * 0.1
		d.NegativeElevationM = float64(r.uint16("negative elevation gain")) * 0.1
	}
	if d.HasInstantaneousPace {
		d.InstantaneousPaceKmMn = float64(r.uint8("instantaneous pace")) * 0.1
	}
	if d.HasAveragePace {
		d.AveragePaceKmMn = float64(r.uint8("average pace")) * 0.1
	}
	if d.HasExpendedEnergy {
		d.TotalEnergyKcal = r.uint16("total energy")
		d.EnergyPerHourKcal = r.uint16("energy per hour")
		d.EnergyPerMinuteKcal = r.uint8("energy per minute")
	}
	if d.HasHeartRate {
		d.HeartRateBpm = r.uint8("heart rate")
	}
	if d.HasMetabolicEquiv {
		d.MetabolicEquivalent = float64(r.uint8("metabolic equivalent")) * 0.1
	}
	if d.HasElapsedTime {
		d.ElapsedTimeSeconds = r.uint16("elapsed time")
	}
	if d.HasRemainingTime {
		d.RemainingTimeSeconds = r.uint16("remaining time")
	}
	if d.HasForceAndPower {
		d.ForceOnBeltNewtons = r.int16("force on belt")
		d.PowerOutputWatts = r.int16("power output")
	}

	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}
