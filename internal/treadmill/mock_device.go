package treadmill

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/lowaak/treadmill-timer/internal/bt"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
)

// MockAddress selects the simulated treadmill instead of a Bluetooth device
const MockAddress = "mock"

const maxWrittenValues = 100

// WrittenValue records a value written to a characteristic
type WrittenValue struct {
	Timestamp          time.Time `json:"timestamp"`
	ServiceUUID        string    `json:"serviceUuid"`
	CharacteristicUUID string    `json:"characteristicUuid"`
	Data               []byte    `json:"data"`
	DataHex            string    `json:"dataHex"`
	Description        string    `json:"description"`
}

// MockState is the simulated belt as served by the debug API
type MockState struct {
	Address         string  `json:"address"`
	Connected       bool    `json:"connected"`
	Running         bool    `json:"running"`
	ControlGranted  bool    `json:"controlGranted"`
	SpeedKmh        float64 `json:"speedKmh"`
	InclinePercent  float64 `json:"inclinePercent"`
	DistanceMeters  float64 `json:"distanceMeters"`
	ElapsedSeconds  int     `json:"elapsedSeconds"`
	NotifyListeners int     `json:"notifyListeners"`
}

type MockDeviceConfig struct {
	Address   string
	LocalName string
	// ServerPort starts the debug HTTP API when positive
	ServerPort int
	// NotifyInterval emits treadmill data periodically when positive
	NotifyInterval time.Duration
	// RejectControl answers Request Control with Control Not Permitted
	RejectControl bool
}

// MockDevice is a simulated FTMS treadmill implementing bt.Device
type MockDevice struct {
	logger *log.Logger
	config MockDeviceConfig

	mu              sync.RWMutex
	state           bt.DeviceState
	controlCallback func([]byte)
	dataCallback    func([]byte)
	controlGranted  bool
	running         bool
	speedKmh        float64
	inclinePercent  float64
	distanceMeters  float64
	elapsedSeconds  int
	runTime         time.Duration

	writtenValuesMu sync.RWMutex
	writtenValues   []WrittenValue

	server       *http.Server
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

var _ bt.Device = (*MockDevice)(nil)

func NewMockDevice(logger *log.Logger, config MockDeviceConfig) *MockDevice {
	if logger == nil {
		panic("MockDevice: logger cannot be nil")
	}
	if config.Address == "" {
		config.Address = "00:00:00:00:00:00"
	}
	if config.LocalName == "" {
		config.LocalName = "Mock Treadmill"
	}
	return &MockDevice{
		logger:        logger,
		config:        config,
		state:         bt.Disconnected,
		writtenValues: make([]WrittenValue, 0),
		doneChan:      make(chan struct{}),
	}
}

// Start connects the simulated treadmill and launches the optional
// debug server and notification loop.
func (m *MockDevice) Start() error {
	m.logger.Printf("MockDevice: Starting mock treadmill %s (%s)", m.config.LocalName, m.config.Address)

	if m.config.ServerPort > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/state", m.handleGetState)
		mux.HandleFunc("/api/writes", m.handleGetWrites)
		mux.HandleFunc("/api/trigger-notification", m.handleTriggerNotification)

		m.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", m.config.ServerPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		m.wg.Add(1)
		go_func_utils.SafeGo(m.logger, func() {
			defer m.wg.Done()
			m.logger.Printf("MockDevice: Web server starting on http://localhost:%d", m.config.ServerPort)
			if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.logger.Printf("MockDevice: Web server error: %v", err)
			}
		})
	}

	if m.config.NotifyInterval > 0 {
		m.wg.Add(1)
		go_func_utils.SafeGo(m.logger, func() { m.runNotifier() })
	}

	m.mu.Lock()
	m.state = bt.Connected
	m.mu.Unlock()
	return nil
}

// Shutdown stops the debug server and notification loop
func (m *MockDevice) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.logger.Printf("MockDevice: Shutting down")
		close(m.doneChan)

		if m.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.server.Shutdown(ctx); err != nil {
				m.logger.Printf("MockDevice: Error shutting down web server: %v", err)
			}
		}
		m.wg.Wait()

		m.mu.Lock()
		m.state = bt.Disconnected
		m.mu.Unlock()
		m.logger.Printf("MockDevice: Shutdown complete")
	})
}

func (m *MockDevice) runNotifier() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.config.NotifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.doneChan:
			return
		case <-ticker.C:
			m.advance(m.config.NotifyInterval)
			m.TriggerTreadmillData()
		}
	}
}

// advance moves the simulated belt forward by d while running
func (m *MockDevice) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.distanceMeters += m.speedKmh / 3.6 * d.Seconds()
	m.runTime += d
	m.elapsedSeconds = int(m.runTime / time.Second)
}

// --- bt.Device ---

func (m *MockDevice) GetAddressString() string {
	return m.config.Address
}

func (m *MockDevice) GetLocalName() string {
	return m.config.LocalName
}

func (m *MockDevice) GetScanRSSI() (int16, error) {
	return -50, nil
}

func (m *MockDevice) IsConnected() bool {
	return m.GetState() == bt.Connected
}

func (m *MockDevice) GetState() bt.DeviceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *MockDevice) HasServiceUUID(uuid string) bool {
	return uuid == ServiceUUIDFTMS
}

func (m *MockDevice) EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if serviceUuid != ServiceUUIDFTMS {
		return fmt.Errorf("service not supported by this device: %s", serviceUuid)
	}
	switch characteristicUuid {
	case CharUUIDFTMSControlPoint:
		m.controlCallback = callbackFunc
	case CharUUIDTreadmillData:
		m.dataCallback = callbackFunc
	default:
		return fmt.Errorf("unknown service/characteristic: %s/%s", serviceUuid, characteristicUuid)
	}
	m.logger.Printf("MockDevice [%s]: EnableNotifications for %s", m.config.LocalName, characteristicUuid)
	return nil
}

func (m *MockDevice) DisableNotifications(serviceUuid string, characteristicUuid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if serviceUuid != ServiceUUIDFTMS {
		return fmt.Errorf("service not supported by this device: %s", serviceUuid)
	}
	switch characteristicUuid {
	case CharUUIDFTMSControlPoint:
		m.controlCallback = nil
	case CharUUIDTreadmillData:
		m.dataCallback = nil
	default:
		return fmt.Errorf("unknown service/characteristic: %s/%s", serviceUuid, characteristicUuid)
	}
	m.logger.Printf("MockDevice [%s]: DisableNotifications for %s", m.config.LocalName, characteristicUuid)
	return nil
}

func (m *MockDevice) ReadCharacteristic(serviceUuid string, characteristicUuid string) ([]byte, error) {
	if serviceUuid == ServiceUUIDFTMS && characteristicUuid == CharUUIDTreadmillData {
		return m.encodeState(), nil
	}
	return nil, fmt.Errorf("unknown service/characteristic: %s/%s", serviceUuid, characteristicUuid)
}

func (m *MockDevice) WriteCharacteristic(serviceUuid string, characteristicUuid string, data []byte) error {
	if !m.IsConnected() {
		return bt.ErrNotConnected
	}
	if serviceUuid != ServiceUUIDFTMS || characteristicUuid != CharUUIDFTMSControlPoint {
		return fmt.Errorf("characteristic not writable: %s/%s", serviceUuid, characteristicUuid)
	}

	m.writtenValuesMu.Lock()
	m.writtenValues = append(m.writtenValues, WrittenValue{
		Timestamp:          time.Now(),
		ServiceUUID:        serviceUuid,
		CharacteristicUUID: characteristicUuid,
		Data:               append([]byte(nil), data...),
		DataHex:            hex.EncodeToString(data),
		Description:        DescribeCommand(data),
	})
	if len(m.writtenValues) > maxWrittenValues {
		m.writtenValues = m.writtenValues[len(m.writtenValues)-maxWrittenValues:]
	}
	m.writtenValuesMu.Unlock()

	m.handleControl(data)
	return nil
}

// WrittenValues returns a copy of the recorded writes, oldest first
func (m *MockDevice) WrittenValues() []WrittenValue {
	m.writtenValuesMu.RLock()
	defer m.writtenValuesMu.RUnlock()
	out := make([]WrittenValue, len(m.writtenValues))
	copy(out, m.writtenValues)
	return out
}

// State returns the simulated belt state
func (m *MockDevice) State() MockState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	listeners := 0
	if m.dataCallback != nil {
		listeners = 1
	}
	return MockState{
		Address:         m.config.Address,
		Connected:       m.state == bt.Connected,
		Running:         m.running,
		ControlGranted:  m.controlGranted,
		SpeedKmh:        m.speedKmh,
		InclinePercent:  m.inclinePercent,
		DistanceMeters:  m.distanceMeters,
		ElapsedSeconds:  m.elapsedSeconds,
		NotifyListeners: listeners,
	}
}

func (m *MockDevice) handleControl(data []byte) {
	if len(data) == 0 {
		return
	}
	op := data[0]
	result := ResultSuccess

	m.mu.Lock()
	switch {
	case op == OpCodeRequestControl:
		if m.config.RejectControl {
			result = ResultControlNotPermitted
		} else {
			m.controlGranted = true
		}
	case !m.controlGranted:
		result = ResultControlNotPermitted
	case op == OpCodeReset:
		m.running = false
		m.speedKmh = 0
		m.inclinePercent = 0
		m.controlGranted = false
	case op == OpCodeSetTargetSpeed && len(data) >= 3:
		m.speedKmh = float64(uint16(data[1])|uint16(data[2])<<8) * speedResolutionKmh
	case op == OpCodeSetTargetInclination && len(data) >= 3:
		m.inclinePercent = float64(int16(uint16(data[1])|uint16(data[2])<<8)) * inclinationResolutionPercent
	case op == OpCodeStartOrResume:
		m.running = true
	case op == OpCodeStopOrPause && len(data) >= 2:
		m.running = false
		if data[1] == StopOrPauseParamStop {
			m.speedKmh = 0
		}
	case op == OpCodeSetTargetSpeed, op == OpCodeSetTargetInclination, op == OpCodeStopOrPause:
		result = ResultInvalidParameter
	default:
		result = ResultOpCodeNotSupported
	}
	callback := m.controlCallback
	m.mu.Unlock()

	if callback != nil {
		callback([]byte{OpCodeResponseCode, op, result})
	}
}

// TriggerTreadmillData sends the current belt state to the data listener
func (m *MockDevice) TriggerTreadmillData() {
	m.mu.RLock()
	callback := m.dataCallback
	m.mu.RUnlock()
	if callback == nil {
		return
	}
	callback(m.encodeState())
}

// encodeState builds a Treadmill Data notification carrying speed,
// distance, inclination and elapsed time.
func (m *MockDevice) encodeState() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flags := uint16(tdFlagTotalDistance | tdFlagInclination | tdFlagElapsedTime)
	speed := uint16(math.Round(m.speedKmh / speedResolutionKmh))
	distance := uint32(m.distanceMeters)
	incline := uint16(int16(math.Round(m.inclinePercent / inclinationResolutionPercent)))
	elapsed := uint16(m.elapsedSeconds)

	return []byte{
		byte(flags), byte(flags >> 8),
		byte(speed), byte(speed >> 8),
		byte(distance), byte(distance >> 8), byte(distance >> 16),
		byte(incline), byte(incline >> 8),
		0x00, 0x00, // ramp angle
		byte(elapsed), byte(elapsed >> 8),
	}
}

// --- debug API ---

func (m *MockDevice) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.State()); err != nil {
		m.logger.Printf("MockDevice: Error encoding state: %v", err)
	}
}

func (m *MockDevice) handleGetWrites(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.WrittenValues()); err != nil {
		m.logger.Printf("MockDevice: Error encoding writes: %v", err)
	}
}

func (m *MockDevice) handleTriggerNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m.TriggerTreadmillData()
	w.WriteHeader(http.StatusNoContent)
}
