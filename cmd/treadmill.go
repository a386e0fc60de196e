package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/treadmill-timer/internal/bt"
	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/go_func_utils"
	"github.com/lowaak/treadmill-timer/internal/treadmill"
)

const mockNotifyInterval = time.Second

// connectTreadmill returns the configured treadmill and a func that
// releases it. The simulated treadmill stands in for address "mock".
func connectTreadmill(logger *log.Logger, cfg config.TreadmillConfig) (bt.Device, func(), error) {
	if cfg.Address == treadmill.MockAddress {
		mock := treadmill.NewMockDevice(logger, treadmill.MockDeviceConfig{
			ServerPort:     cfg.MockPort,
			NotifyInterval: mockNotifyInterval,
		})
		if err := mock.Start(); err != nil {
			return nil, nil, fmt.Errorf("start mock treadmill: %w", err)
		}
		return mock, mock.Shutdown, nil
	}

	manager := bt.NewManager(bluetooth.DefaultAdapter, logger)
	if err := manager.Enable(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScanTimeout)
	defer cancel()

	device, err := manager.FindDevice(ctx, cfg.Address, []string{treadmill.ServiceUUIDFTMS})
	if err != nil {
		manager.Shutdown()
		return nil, nil, fmt.Errorf("find treadmill %s: %w", cfg.Address, err)
	}
	if err := manager.Connect(ctx, device); err != nil {
		manager.Shutdown()
		return nil, nil, fmt.Errorf("connect treadmill %s: %w", cfg.Address, err)
	}
	stopWatch := watchTreadmillLink(logger, manager, device)
	return device, func() {
		stopWatch()
		manager.Shutdown()
	}, nil
}

// watchTreadmillLink logs when the treadmill drops off or comes back.
// The returned func stops the watcher and waits for it.
func watchTreadmillLink(logger *log.Logger, manager *bt.Manager, device bt.Device) func() {
	ch := make(chan []bt.Device, 4)
	unregister := manager.ListenToConnectedDevices(ch)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go_func_utils.SafeGo(logger, func() {
		defer close(stopped)
		linked := true
		for {
			select {
			case <-done:
				return
			case devices := <-ch:
				now := containsDevice(devices, device)
				if now != linked {
					if now {
						logger.Printf("Main: Treadmill %s reconnected", device.GetAddressString())
					} else {
						logger.Printf("Main: Treadmill %s link lost", device.GetAddressString())
					}
					linked = now
				}
			}
		}
	})

	return func() {
		unregister()
		close(done)
		<-stopped
	}
}

func containsDevice(devices []bt.Device, device bt.Device) bool {
	for _, d := range devices {
		if strings.EqualFold(d.GetAddressString(), device.GetAddressString()) {
			return true
		}
	}
	return false
}
