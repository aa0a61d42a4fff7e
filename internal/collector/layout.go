package collector

import (
	"strings"
	"time"

	"StrikeSentinel/internal/model"
)

// Columns maps the option-chain table cells to RowData fields.
type Columns struct {
	MinColumns int `yaml:"min_columns"`
	Strike     int `yaml:"strike"`

	CEVolume int `yaml:"ce_volume"`
	CEBidQty int `yaml:"ce_bid_qty"`
	CEBid    int `yaml:"ce_bid"`
	CEAsk    int `yaml:"ce_ask"`
	CEAskQty int `yaml:"ce_ask_qty"`

	PEBidQty int `yaml:"pe_bid_qty"`
	PEBid    int `yaml:"pe_bid"`
	PEAsk    int `yaml:"pe_ask"`
	PEAskQty int `yaml:"pe_ask_qty"`
	PEVolume int `yaml:"pe_volume"`
}

// DefaultColumns is the commodity option-chain layout.
var DefaultColumns = Columns{
	MinColumns: 21,
	Strike:     10,
	CEVolume:   2,
	CEBidQty:   6,
	CEBid:      7,
	CEAsk:      8,
	CEAskQty:   9,
	PEBidQty:   11,
	PEBid:      12,
	PEAsk:      13,
	PEAskQty:   14,
	PEVolume:   18,
}

// Layout locates the page elements the pipeline drives.
type Layout struct {
	EntryURL          string  `yaml:"entry_url"`
	ViewLocator       string  `yaml:"view_locator"`
	InstrumentSelect  string  `yaml:"instrument_select"`
	ExpirySelect      string  `yaml:"expiry_select"`
	ExpiryPlaceholder string  `yaml:"expiry_placeholder"`
	DataReadyLocator  string  `yaml:"data_ready_locator"`
	TableLocator      string  `yaml:"table_locator"`
	Placeholder       string  `yaml:"placeholder"`
	Columns           Columns `yaml:"columns"`
}

// DefaultLayout targets the commodity tab of the exchange option-chain page.
var DefaultLayout = Layout{
	EntryURL:          "https://www.nseindia.com/option-chain",
	ViewLocator:       "#goldmChain",
	InstrumentSelect:  "goldmSelect",
	ExpirySelect:      "goldmExpirySelect",
	ExpiryPlaceholder: "Select",
	DataReadyLocator:  "table",
	TableLocator:      "#optionChainTable-goldm",
	Placeholder:       "-",
	Columns:           DefaultColumns,
}

// ParseRows converts raw table rows into StrikeRows, dropping headers,
// separators and rows whose strike cell is blank or a placeholder.
func (l Layout) ParseRows(raw [][]string) []model.StrikeRow {
	rows := make([]model.StrikeRow, 0, len(raw))
	for _, cells := range raw {
		if row, ok := l.parseRow(cells); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func (l Layout) parseRow(cells []string) (model.StrikeRow, bool) {
	c := l.Columns
	if len(cells) < c.MinColumns || c.Strike < 0 || c.Strike >= len(cells) {
		return model.StrikeRow{}, false
	}
	strike := strings.TrimSpace(cells[c.Strike])
	if strike == "" || strike == l.Placeholder || !strings.Contains(strike, ",") {
		return model.StrikeRow{}, false
	}
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return model.NA
		}
		if v := strings.TrimSpace(cells[i]); v != "" {
			return v
		}
		return model.NA
	}
	return model.StrikeRow{
		Key: strike,
		CE: model.RowData{
			Volume: cell(c.CEVolume),
			BidQty: cell(c.CEBidQty),
			Bid:    cell(c.CEBid),
			Ask:    cell(c.CEAsk),
			AskQty: cell(c.CEAskQty),
		},
		PE: model.RowData{
			Volume: cell(c.PEVolume),
			BidQty: cell(c.PEBidQty),
			Bid:    cell(c.PEBid),
			Ask:    cell(c.PEAsk),
			AskQty: cell(c.PEAskQty),
		},
	}, true
}

// ExpiryValues filters select option values down to real expiries.
func (l Layout) ExpiryValues(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" || strings.EqualFold(o, l.ExpiryPlaceholder) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Options tunes timeouts, retries and driver lifecycle.
type Options struct {
	NavigationTimeout time.Duration
	SelectionTimeout  time.Duration
	DataTimeout       time.Duration
	ExtractTimeout    time.Duration
	NavigationRetries int
	RetryBackoff      time.Duration
	// SettleDelay is slept after each page interaction so the page can re-render.
	SettleDelay time.Duration
	// ReuseDriver keeps one driver across fetches; otherwise each fetch
	// creates and disposes its own.
	ReuseDriver bool
}

// DefaultOptions mirrors the timings the source page tolerates.
var DefaultOptions = Options{
	NavigationTimeout: 15 * time.Second,
	SelectionTimeout:  10 * time.Second,
	DataTimeout:       8 * time.Second,
	ExtractTimeout:    10 * time.Second,
	NavigationRetries: 3,
	RetryBackoff:      time.Second,
	SettleDelay:       time.Second,
	ReuseDriver:       true,
}
