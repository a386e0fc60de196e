package treadmill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSetTargetSpeed(t *testing.T) {
	assert.Equal(t, []byte{OpCodeSetTargetSpeed, 0x58, 0x02}, EncodeSetTargetSpeed(6))
	assert.Equal(t, []byte{OpCodeSetTargetSpeed, 0x9A, 0x03}, EncodeSetTargetSpeed(9.22))
	assert.Equal(t, []byte{OpCodeSetTargetSpeed, 0x00, 0x00}, EncodeSetTargetSpeed(-1))
	assert.Equal(t, []byte{OpCodeSetTargetSpeed, 0xFF, 0xFF}, EncodeSetTargetSpeed(1000))
}

func TestEncodeSetTargetInclination(t *testing.T) {
	assert.Equal(t, []byte{OpCodeSetTargetInclination, 0x14, 0x00}, EncodeSetTargetInclination(2))
	assert.Equal(t, []byte{OpCodeSetTargetInclination, 0x69, 0x00}, EncodeSetTargetInclination(10.5))
	// -1.5 % is -15, two's complement 0xFFF1
	assert.Equal(t, []byte{OpCodeSetTargetInclination, 0xF1, 0xFF}, EncodeSetTargetInclination(-1.5))
}

func TestEncodeStopOrPause(t *testing.T) {
	assert.Equal(t, []byte{OpCodeStopOrPause, 0x01}, EncodeStopOrPause(false))
	assert.Equal(t, []byte{OpCodeStopOrPause, 0x02}, EncodeStopOrPause(true))
}

func TestParseControlPointResponse(t *testing.T) {
	resp, err := ParseControlPointResponse([]byte{0x80, OpCodeRequestControl, ResultControlNotPermitted})
	require.NoError(t, err)
	assert.Equal(t, OpCodeRequestControl, resp.RequestOpCode)
	assert.False(t, resp.Success())
	assert.Equal(t, "Request Control -> Control Not Permitted", resp.String())

	_, err = ParseControlPointResponse([]byte{0x80, 0x00})
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = ParseControlPointResponse([]byte{0x07, 0x00, 0x01})
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Set Target Inclination", OpCodeName(OpCodeSetTargetInclination))
	assert.Equal(t, "OpCode 0x42", OpCodeName(0x42))
	assert.Equal(t, "Invalid Parameter", ResultName(ResultInvalidParameter))
	assert.Equal(t, "Result 0x09", ResultName(0x09))
}

func TestDescribeCommand(t *testing.T) {
	assert.Equal(t, "Set Target Speed: 6.00 km/h", DescribeCommand(EncodeSetTargetSpeed(6)))
	assert.Equal(t, "Set Target Inclination: -1.5%", DescribeCommand(EncodeSetTargetInclination(-1.5)))
	assert.Equal(t, "Pause", DescribeCommand(EncodeStopOrPause(true)))
	assert.Equal(t, "Stop", DescribeCommand(EncodeStopOrPause(false)))
	assert.Equal(t, "Start/Resume", DescribeCommand(EncodeStartOrResume()))
	assert.Equal(t, "Set Target Speed (malformed)", DescribeCommand([]byte{OpCodeSetTargetSpeed}))
	assert.Equal(t, "empty", DescribeCommand(nil))
}

func TestParseTreadmillData_SpeedOnly(t *testing.T) {
	data, err := ParseTreadmillData([]byte{0x00, 0x00, 0x58, 0x02})
	require.NoError(t, err)
	assert.True(t, data.HasInstantaneousSpeed)
	assert.InDelta(t, 6.0, data.InstantaneousSpeedKmh, 0.001)
	assert.False(t, data.HasInclination)
}

func TestParseTreadmillData_AllFields(t *testing.T) {
	// every flag set, bit0 set so instantaneous speed is absent
	buf := []byte{0xFF, 0x1F}
	buf = append(buf, 0xE8, 0x03)             // average speed 10.00
	buf = append(buf, 0x10, 0x27, 0x00)       // distance 10000 m
	buf = append(buf, 0x1E, 0x00, 0xFB, 0xFF) // inclination 3.0 %, ramp -0.5 deg
	buf = append(buf, 0x64, 0x00, 0x0A, 0x00) // elevation +10.0 m, -1.0 m
	buf = append(buf, 0x32, 0x37)             // pace 5.0, average pace 5.5
	buf = append(buf, 0x2C, 0x01, 0x58, 0x02, 0x0A)
	buf = append(buf, 0x8C, 0x5A)             // heart rate 140, MET 9.0
	buf = append(buf, 0x08, 0x07, 0x2C, 0x01) // elapsed 1800 s, remaining 300 s
	buf = append(buf, 0x14, 0x00, 0xC8, 0x00) // force 20 N, power 200 W

	data, err := ParseTreadmillData(buf)
	require.NoError(t, err)

	assert.False(t, data.HasInstantaneousSpeed)
	assert.InDelta(t, 10.0, data.AverageSpeedKmh, 0.001)
	assert.Equal(t, uint32(10000), data.TotalDistanceMeters)
	assert.InDelta(t, 3.0, data.InclinationPercent, 0.001)
	assert.InDelta(t, -0.5, data.RampAngleDegrees, 0.001)
	assert.InDelta(t, 10.0, data.PositiveElevationM, 0.001)
	assert.InDelta(t, 1.0, data.NegativeElevationM, 0.001)
	assert.InDelta(t, 5.0, data.InstantaneousPaceKmMn, 0.001)
	assert.InDelta(t, 5.5, data.AveragePaceKmMn, 0.001)
	assert.Equal(t, uint16(300), data.TotalEnergyKcal)
	assert.Equal(t, uint16(600), data.EnergyPerHourKcal)
	assert.Equal(t, uint8(10), data.EnergyPerMinuteKcal)
	assert.Equal(t, uint8(140), data.HeartRateBpm)
	assert.InDelta(t, 9.0, data.MetabolicEquivalent, 0.001)
	assert.Equal(t, uint16(1800), data.ElapsedTimeSeconds)
	assert.Equal(t, uint16(300), data.RemainingTimeSeconds)
	assert.Equal(t, int16(20), data.ForceOnBeltNewtons)
	assert.Equal(t, int16(200), data.PowerOutputWatts)
}

func TestParseTreadmillData_Truncated(t *testing.T) {
	_, err := ParseTreadmillData([]byte{0x00})
	assert.ErrorIs(t, err, ErrShortBuffer)

	// inclination flagged but only the first field present
	_, err = ParseTreadmillData([]byte{0x08, 0x00, 0x58, 0x02, 0x1E, 0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ramp angle")
}
