package bt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/treadmill-timer/internal/safe_map"
)

type DeviceState int

const (
	Disconnected DeviceState = iota
	Connecting
	Connected
)

func (s DeviceState) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

var ErrNotConnected = errors.New("device not connected")

// Device is a BLE peripheral seen by the Manager
type Device interface {
	GetAddressString() string
	GetLocalName() string
	GetScanRSSI() (int16, error)
	IsConnected() bool
	GetState() DeviceState
	HasServiceUUID(uuid string) bool
	EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error
	DisableNotifications(serviceUuid string, characteristicUuid string) error
	ReadCharacteristic(serviceUuid string, characteristicUuid string) ([]byte, error)
	WriteCharacteristic(serviceUuid string, characteristicUuid string, data []byte) error
}

type deviceImpl struct {
	logger  *log.Logger
	address bluetooth.Address

	mu              sync.RWMutex
	localName       string
	rssi            int16
	hasRSSI         bool
	serviceUuidStrs []string
	connectedDevice *bluetooth.Device
	state           DeviceState
	connectedChan   chan struct{}

	// bleMu serializes characteristic operations; the stack misbehaves on
	// concurrent discovery and writes.
	bleMu                  sync.Mutex
	allServicesDiscovered  bool
	serviceByUuid          *safe_map.SafeMap[string, *bluetooth.DeviceService]
	characteristicByUuid   *safe_map.SafeMap[string, *bluetooth.DeviceCharacteristic]
	serviceCharsDiscovered *safe_map.SafeMap[string, bool]
}

func newDeviceImpl(logger *log.Logger, address bluetooth.Address) *deviceImpl {
	if logger == nil {
		panic("logger must be non nil")
	}
	return &deviceImpl{
		logger:                 logger,
		address:                address,
		localName:              "Unknown",
		state:                  Disconnected,
		connectedChan:          make(chan struct{}),
		serviceByUuid:          safe_map.NewSafeMap[string, *bluetooth.DeviceService](),
		characteristicByUuid:   safe_map.NewSafeMap[string, *bluetooth.DeviceCharacteristic](),
		serviceCharsDiscovered: safe_map.NewSafeMap[string, bool](),
	}
}

func (d *deviceImpl) GetAddressString() string {
	return d.address.String()
}

func (d *deviceImpl) GetLocalName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.localName
}

func (d *deviceImpl) GetScanRSSI() (int16, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.hasRSSI {
		return 0, errors.New("no rssi available")
	}
	return d.rssi, nil
}

func (d *deviceImpl) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectedDevice != nil
}

func (d *deviceImpl) GetState() DeviceState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *deviceImpl) HasServiceUUID(uuid string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.serviceUuidStrs {
		if u == uuid {
			return true
		}
	}
	return false
}

func (d *deviceImpl) updateFromScan(result bluetooth.ScanResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name := result.LocalName(); name != "" {
		d.localName = name
	}
	d.rssi = result.RSSI
	d.hasRSSI = true
	if uuids := result.ServiceUUIDs(); len(uuids) > 0 {
		d.serviceUuidStrs = d.serviceUuidStrs[:0]
		for _, u := range uuids {
			d.serviceUuidStrs = append(d.serviceUuidStrs, u.String())
		}
	}
}

func (d *deviceImpl) setConnecting() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connectedDevice == nil {
		d.state = Connecting
	}
}

func (d *deviceImpl) setConnected(device *bluetooth.Device) {
	d.mu.Lock()
	defer d.mu.Unlock()
	wasConnected := d.connectedDevice != nil
	if device != nil {
		d.connectedDevice = device
		d.state = Connected
		if !wasConnected {
			close(d.connectedChan)
		}
		return
	}
	d.connectedDevice = nil
	d.state = Disconnected
	if wasConnected {
		d.connectedChan = make(chan struct{})
	}

	// handles are invalid after a disconnect
	d.allServicesDiscovered = false
	d.serviceByUuid.Clear()
	d.characteristicByUuid.Clear()
	d.serviceCharsDiscovered.Clear()
}

// waitForConnection blocks until the connect handler reports the device
func (d *deviceImpl) waitForConnection(ctx context.Context) error {
	d.mu.RLock()
	connected := d.connectedDevice != nil
	ch := d.connectedChan
	d.mu.RUnlock()
	if connected {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for connection to %s: %w", d.GetAddressString(), ctx.Err())
	}
}

func (d *deviceImpl) getConnectedDevice() *bluetooth.Device {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connectedDevice
}

func (d *deviceImpl) EnableNotifications(serviceUuidStr, characteristicUuidStr string, callbackFunc func(buf []byte)) error {
	d.bleMu.Lock()
	defer d.bleMu.Unlock()

	characteristic, err := d.lookupCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return err
	}
	if err := characteristic.EnableNotifications(callbackFunc); err != nil {
		return fmt.Errorf("failed to enable notifications: %w", err)
	}
	d.logger.Printf("BTDevice: Notifications enabled for %s", characteristicUuidStr)
	return nil
}

func (d *deviceImpl) DisableNotifications(serviceUuidStr, characteristicUuidStr string) error {
	d.bleMu.Lock()
	defer d.bleMu.Unlock()

	characteristic, err := d.lookupCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return err
	}
	// a nil callback turns notifications off
	if err := characteristic.EnableNotifications(nil); err != nil {
		return fmt.Errorf("failed to disable notifications: %w", err)
	}
	return nil
}

func (d *deviceImpl) ReadCharacteristic(serviceUuidStr, characteristicUuidStr string) ([]byte, error) {
	d.bleMu.Lock()
	defer d.bleMu.Unlock()

	characteristic, err := d.lookupCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, err := characteristic.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read characteristic: %w", err)
	}
	return buf[:n], nil
}

func (d *deviceImpl) WriteCharacteristic(serviceUuidStr, characteristicUuidStr string, data []byte) error {
	d.bleMu.Lock()
	defer d.bleMu.Unlock()

	characteristic, err := d.lookupCharacteristic(serviceUuidStr, characteristicUuidStr)
	if err != nil {
		return err
	}
	if _, err := characteristic.Write(data); err != nil {
		return fmt.Errorf("failed to write characteristic: %w", err)
	}
	return nil
}

// lookupCharacteristic must be called with bleMu held
func (d *deviceImpl) lookupCharacteristic(serviceUuidStr, characteristicUuidStr string) (*bluetooth.DeviceCharacteristic, error) {
	serviceUuid, err := bluetooth.ParseUUID(serviceUuidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", serviceUuidStr, err)
	}
	charUuid, err := bluetooth.ParseUUID(characteristicUuidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", characteristicUuidStr, err)
	}
	return d.getDeviceCharacteristic(serviceUuid, charUuid)
}

// getDeviceService discovers every service on first use. Discovering them one
// at a time interrupts services that are already in use.
func (d *deviceImpl) getDeviceService(serviceUuid bluetooth.UUID) (*bluetooth.DeviceService, error) {
	connectedDevice := d.getConnectedDevice()
	if connectedDevice == nil {
		return nil, ErrNotConnected
	}

	key := serviceUuid.String()
	if service, ok := d.serviceByUuid.Load(key); ok {
		return service, nil
	}

	if !d.allServicesDiscovered {
		d.logger.Printf("BTDevice: Discovering all services for %s", d.GetAddressString())
		services, err := connectedDevice.DiscoverServices(nil)
		if err != nil {
			return nil, fmt.Errorf("error discovering services: %w", err)
		}
		for i := range services {
			svc := &services[i]
			d.serviceByUuid.Store(svc.UUID().String(), svc)
		}
		d.allServicesDiscovered = true
	}

	service, ok := d.serviceByUuid.Load(key)
	if !ok {
		return nil, fmt.Errorf("service %v not found on device", key)
	}
	return service, nil
}

func (d *deviceImpl) getDeviceCharacteristic(serviceUuid, charUuid bluetooth.UUID) (*bluetooth.DeviceCharacteristic, error) {
	serviceKey := serviceUuid.String()
	comboKey := serviceKey + "_" + charUuid.String()

	if characteristic, ok := d.characteristicByUuid.Load(comboKey); ok {
		return characteristic, nil
	}

	if discovered, _ := d.serviceCharsDiscovered.Load(serviceKey); !discovered {
		service, err := d.getDeviceService(serviceUuid)
		if err != nil {
			return nil, err
		}
		chars, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("could not discover characteristics for service %v: %w", serviceKey, err)
		}
		for i := range chars {
			c := &chars[i]
			d.characteristicByUuid.Store(serviceKey+"_"+c.UUID().String(), c)
		}
		d.serviceCharsDiscovered.Store(serviceKey, true)
	}

	characteristic, ok := d.characteristicByUuid.Load(comboKey)
	if !ok {
		return nil, fmt.Errorf("characteristic %v not found in service %v", charUuid.String(), serviceKey)
	}
	return characteristic, nil
}
