package bt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/treadmill-timer/internal/events"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
)

// Manager owns the adapter: scanning, connections and the device registry
type Manager struct {
	adapter *bluetooth.Adapter
	logger  *log.Logger

	mu               sync.RWMutex
	devicesByAddress map[string]*deviceImpl
	scanning         bool

	connectedDevicesEvent *events.ChannelEvent[[]Device]
	wg                    sync.WaitGroup
}

func NewManager(adapter *bluetooth.Adapter, logger *log.Logger) *Manager {
	if adapter == nil {
		panic("BTManager: adapter cannot be nil")
	}
	if logger == nil {
		panic("BTManager: logger cannot be nil")
	}
	return &Manager{
		adapter:               adapter,
		logger:                logger,
		devicesByAddress:      make(map[string]*deviceImpl),
		connectedDevicesEvent: events.NewChannelEvent[[]Device](true),
	}
}

// Enable powers the adapter and starts tracking connection changes
func (m *Manager) Enable() error {
	m.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		d := m.getOrCreate(device.Address)
		if connected {
			m.logger.Printf("BTManager: Device connected: %s", device.Address.String())
			d.setConnected(&device)
		} else {
			m.logger.Printf("BTManager: Device disconnected: %s", device.Address.String())
			d.setConnected(nil)
		}
		m.emitConnectedDevicesChange()
	})
	if err := m.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	return nil
}

func (m *Manager) getOrCreate(address bluetooth.Address) *deviceImpl {
	key := strings.ToUpper(address.String())
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devicesByAddress[key]
	if !ok {
		d = newDeviceImpl(m.logger, address)
		m.devicesByAddress[key] = d
	}
	return d
}

// FindDevice scans until a device matches and returns it. An empty address
// accepts the first device advertising one of serviceFilter.
func (m *Manager) FindDevice(ctx context.Context, address string, serviceFilter []string) (Device, error) {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return nil, fmt.Errorf("scan already in progress")
	}
	m.scanning = true
	m.mu.Unlock()

	filterSet := make(map[string]struct{}, len(serviceFilter))
	for _, f := range serviceFilter {
		filterSet[strings.ToLower(f)] = struct{}{}
	}

	found := make(chan *deviceImpl, 1)
	scanDone := make(chan struct{})

	m.logger.Printf("BTManager: Scanning for %q (filter %v)", address, serviceFilter)
	m.wg.Add(1)
	go_func_utils.SafeGo(m.logger, func() {
		defer m.wg.Done()
		defer close(scanDone)
		err := m.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matchesScan(result, address, filterSet) {
				return
			}
			d := m.getOrCreate(result.Address)
			d.updateFromScan(result)
			select {
			case found <- d:
			default:
			}
		})
		if err != nil {
			m.logger.Printf("BTManager: Scan error: %v", err)
		}
	})

	var (
		result Device
		err    error
	)
	select {
	case d := <-found:
		m.logger.Printf("BTManager: Found %s (%s)", d.GetLocalName(), d.GetAddressString())
		result = d
	case <-scanDone:
		err = fmt.Errorf("scan ended before %q was found", address)
	case <-ctx.Done():
		err = fmt.Errorf("scan for %q: %w", address, ctx.Err())
	}

	if stopErr := m.adapter.StopScan(); stopErr != nil {
		m.logger.Printf("BTManager: Error stopping scan: %v", stopErr)
	}
	<-scanDone
	m.mu.Lock()
	m.scanning = false
	m.mu.Unlock()
	return result, err
}

func matchesScan(result bluetooth.ScanResult, address string, filterSet map[string]struct{}) bool {
	if address != "" {
		return strings.EqualFold(result.Address.String(), address)
	}
	if len(filterSet) == 0 {
		return true
	}
	for _, u := range result.ServiceUUIDs() {
		if _, ok := filterSet[strings.ToLower(u.String())]; ok {
			return true
		}
	}
	return false
}

// Connect connects to device and waits until the connection is usable
func (m *Manager) Connect(ctx context.Context, device Device) error {
	d, err := m.lookup(device)
	if err != nil {
		return err
	}
	m.logger.Printf("BTManager: Connecting to %s", d.GetAddressString())
	d.setConnecting()

	connected, err := m.adapter.Connect(d.address, bluetooth.ConnectionParams{})
	if err != nil {
		d.setConnected(nil)
		return fmt.Errorf("connect %s: %w", d.GetAddressString(), err)
	}
	d.setConnected(&connected)
	m.emitConnectedDevicesChange()
	return d.waitForConnection(ctx)
}

func (m *Manager) Disconnect(device Device) error {
	d, err := m.lookup(device)
	if err != nil {
		return err
	}
	inner := d.getConnectedDevice()
	if inner == nil {
		return nil
	}
	m.logger.Printf("BTManager: Disconnecting from %s", d.GetAddressString())
	if err := inner.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", d.GetAddressString(), err)
	}
	return nil
}

func (m *Manager) lookup(device Device) (*deviceImpl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devicesByAddress[strings.ToUpper(device.GetAddressString())]
	if !ok {
		return nil, fmt.Errorf("unknown device %s", device.GetAddressString())
	}
	return d, nil
}

func (m *Manager) GetConnectedDevices() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Device, 0)
	for _, d := range m.devicesByAddress {
		if d.IsConnected() {
			result = append(result, d)
		}
	}
	return result
}

// ListenToConnectedDevices registers ch for connection changes.
// Returns a deregistration function.
func (m *Manager) ListenToConnectedDevices(ch chan<- []Device) func() {
	return m.connectedDevicesEvent.Listen(ch)
}

func (m *Manager) emitConnectedDevicesChange() {
	m.connectedDevicesEvent.Notify(m.GetConnectedDevices())
}

// Shutdown disconnects everything and waits for scan goroutines
func (m *Manager) Shutdown() {
	m.logger.Println("BTManager: Shutting down")
	for _, d := range m.GetConnectedDevices() {
		if err := m.Disconnect(d); err != nil {
			m.logger.Printf("BTManager: %v", err)
		}
	}
	m.wg.Wait()
	m.logger.Println("BTManager: Shutdown complete")
}
