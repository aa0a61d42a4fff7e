package collector

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDriver is a scriptable PageDriver for development and testing.
// Nil hooks succeed; Rows and Expiries back the default behaviour.
type MockDriver struct {
	Rows     [][]string
	Expiries []string

	NavigateFunc func(ctx context.Context, url string) error
	SelectFunc   func(ctx context.Context, elementID, value string) error
	WaitFunc     func(ctx context.Context, locator string, timeout time.Duration) (bool, error)
	ExtractFunc  func(ctx context.Context, tableLocator string) ([][]string, error)

	mu       sync.Mutex
	calls    map[string]int
	selected map[string]string
	disposed bool
}

func (m *MockDriver) Name() string { return "mock" }

func (m *MockDriver) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[call]++
}

// Calls returns how many times the named method was invoked.
func (m *MockDriver) Calls(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[call]
}

// Selected returns the last value selected on elementID.
func (m *MockDriver) Selected(elementID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected[elementID]
}

// Disposed reports whether Dispose was called.
func (m *MockDriver) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	m.record("Navigate")
	if m.NavigateFunc != nil {
		return m.NavigateFunc(ctx, url)
	}
	return ctx.Err()
}

func (m *MockDriver) Click(ctx context.Context, _ string) error {
	m.record("Click")
	return ctx.Err()
}

func (m *MockDriver) SelectOption(ctx context.Context, elementID, value string) error {
	m.record("SelectOption")
	if m.SelectFunc != nil {
		if err := m.SelectFunc(ctx, elementID, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		m.selected = make(map[string]string)
	}
	m.selected[elementID] = value
	return nil
}

func (m *MockDriver) Options(ctx context.Context, _ string) ([]string, error) {
	m.record("Options")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]string{"Select"}, m.Expiries...), nil
}

func (m *MockDriver) WaitForPresence(ctx context.Context, locator string, timeout time.Duration) (bool, error) {
	m.record("WaitForPresence")
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, locator, timeout)
	}
	return true, ctx.Err()
}

func (m *MockDriver) ExtractRows(ctx context.Context, tableLocator string) ([][]string, error) {
	m.record("ExtractRows")
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, tableLocator)
	}
	return m.Rows, ctx.Err()
}

func (m *MockDriver) Dispose() error {
	m.record("Dispose")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	return nil
}

// Factory returns a DriverFactory that always hands out m.
func (m *MockDriver) Factory() DriverFactory {
	return func(ctx context.Context) (PageDriver, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// MockRow builds a full-width table row for strike with the given CE and PE
// bid/ask and volume values; every other cell is blank.
func MockRow(strike, ceBid, ceAsk, ceVol, peBid, peAsk, peVol string) []string {
	c := DefaultColumns
	cells := make([]string, c.MinColumns)
	cells[c.Strike] = strike
	cells[c.CEBid] = ceBid
	cells[c.CEAsk] = ceAsk
	cells[c.CEVolume] = ceVol
	cells[c.PEBid] = peBid
	cells[c.PEAsk] = peAsk
	cells[c.PEVolume] = peVol
	return cells
}

// MockChain builds a plausible option chain of n strikes starting at base
// with the given step, rendered with thousands separators.
func MockChain(base, step, n int) [][]string {
	rows := [][]string{make([]string, 3)} // header-like row, filtered out
	for i := 0; i < n; i++ {
		k := base + i*step
		strike := fmt.Sprintf("%d,%03d.00", k/1000, k%1000)
		rows = append(rows, MockRow(strike,
			fmt.Sprintf("%d.00", 900+i), fmt.Sprintf("%d.00", 910+i), fmt.Sprintf("%d", 10*i),
			fmt.Sprintf("%d.00", 800-i), fmt.Sprintf("%d.00", 810-i), fmt.Sprintf("%d", 5*i)))
	}
	return rows
}
