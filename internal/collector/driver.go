package collector

import (
	"context"
	"time"
)

// PageDriver is the capability the pipeline needs from a browser automation
// backend. Implementations must honour ctx on every call.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, locator string) error
	SelectOption(ctx context.Context, elementID, value string) error
	// Options returns the option values of a select element in document order.
	Options(ctx context.Context, elementID string) ([]string, error)
	// WaitForPresence reports whether locator appeared within timeout.
	WaitForPresence(ctx context.Context, locator string, timeout time.Duration) (bool, error)
	// ExtractRows returns the cell texts of every row of the table at tableLocator.
	ExtractRows(ctx context.Context, tableLocator string) ([][]string, error)
	Dispose() error
	Name() string
}

// DriverFactory creates a fresh PageDriver.
type DriverFactory func(ctx context.Context) (PageDriver, error)
