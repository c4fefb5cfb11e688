package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"cloudpico-sensortag/internal/sensortag"
)

// Match is a single advertisement accepted by the filter.
type Match struct {
	Address   string
	RSSI      int16
	LocalName string
	SeenAt    time.Time

	result bluetooth.ScanResult
}

// Filter selects the tag to connect to. Empty fields match anything.
type Filter struct {
	LocalName string
	Address   string
}

func (f Filter) matches(name, addr string) bool {
	if f.LocalName != "" && name != f.LocalName {
		return false
	}
	if f.Address != "" && !strings.EqualFold(addr, f.Address) {
		return false
	}
	return true
}

type Options struct {
	Adapter     string // "hci0" by default
	Filter      Filter
	ScanTimeout time.Duration
}

// Scanner wraps BlueZ scanning with context cancellation.
type Scanner struct {
	adapter *bluetooth.Adapter
	opts    Options
	enabled bool
}

func NewScanner(opts Options) *Scanner {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 30 * time.Second
	}

	return &Scanner{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
	}
}

func (s *Scanner) enable() error {
	if s.enabled {
		return nil
	}
	slog.Info("ble: enabling adapter", "adapter", s.opts.Adapter)
	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", s.opts.Adapter, err)
	}
	s.enabled = true
	slog.Info("ble: adapter enabled", "adapter", s.opts.Adapter)
	return nil
}

// Find scans until an advertisement matches the filter. It returns
// sensortag.ErrDeviceNotFound when the scan timeout elapses first.
func (s *Scanner) Find(ctx context.Context) (Match, error) {
	if err := s.enable(); err != nil {
		return Match{}, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.opts.ScanTimeout)
	defer cancel()

	go func() {
		<-scanCtx.Done()
		_ = s.adapter.StopScan()
	}()

	slog.Info("ble: scanning started",
		"filter_name", s.opts.Filter.LocalName,
		"filter_addr", s.opts.Filter.Address,
		"timeout", s.opts.ScanTimeout,
	)

	var (
		mu    sync.Mutex
		found *Match
	)
	// adapter.Scan blocks until StopScan() or error.
	err := s.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		addr := r.Address.String()
		name := r.LocalName()
		if !s.opts.Filter.matches(name, addr) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if found != nil {
			return
		}
		found = &Match{
			Address:   addr,
			RSSI:      r.RSSI,
			LocalName: name,
			SeenAt:    time.Now(),
			result:    r,
		}
		_ = a.StopScan()
	})

	mu.Lock()
	defer mu.Unlock()
	if found != nil {
		slog.Info("ble: device found", "addr", found.Address, "name", found.LocalName, "rssi", found.RSSI)
		return *found, nil
	}
	if ctx.Err() != nil {
		return Match{}, ctx.Err()
	}
	if err != nil && scanCtx.Err() == nil {
		return Match{}, fmt.Errorf("ble scan: %w", err)
	}
	return Match{}, fmt.Errorf("no advertisement matched name=%q addr=%q within %s: %w",
		s.opts.Filter.LocalName, s.opts.Filter.Address, s.opts.ScanTimeout, sensortag.ErrDeviceNotFound)
}

// Connect opens a connection to a device returned by Find.
func (s *Scanner) Connect(ctx context.Context, m Match) (*Device, error) {
	if err := s.enable(); err != nil {
		return nil, err
	}
	type result struct {
		dev bluetooth.Device
		err error
	}
	done := make(chan result, 1)
	go func() {
		dev, err := s.adapter.Connect(m.result.Address, bluetooth.ConnectionParams{})
		done <- result{dev, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("ble connect %s: %w", m.Address, r.err)
		}
		slog.Info("ble: connected", "addr", m.Address)
		return newDevice(m.Address, r.dev), nil
	}
}
