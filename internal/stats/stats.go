// Package stats normalizes the textual and structured statistics of a
// backtest result into a single sorted numeric map.
package stats

import (
	"strings"

	"backtestvault/internal/domain"
)

// Unit markers appended to a statistic name when its text carried them.
const (
	CurrencySuffix = "$"
	PercentSuffix  = "%"
)

// AddItem parses text and inserts it into m under name. Text containing "$"
// or "%" is parsed without the marker and the marker is appended to the
// name. Text that does not parse is skipped. It returns the key used and
// whether an entry was added.
func AddItem(m *domain.Statistics, name, text string) (string, bool) {
	if strings.Contains(text, CurrencySuffix) {
		if v, ok := ParseInvariant(strings.ReplaceAll(text, CurrencySuffix, "")); ok {
			return m.Insert(name+CurrencySuffix, v), true
		}
	}
	if strings.Contains(text, PercentSuffix) {
		if v, ok := ParseInvariant(strings.ReplaceAll(text, PercentSuffix, "")); ok {
			return m.Insert(name+PercentSuffix, v), true
		}
	}
	v, ok := ParseInvariant(text)
	if !ok {
		return "", false
	}
	return m.Insert(name, v), true
}

// Read flattens the statistics of a result. The seeds are inserted first,
// followed by the textual statistics, the runtime statistics and the
// portfolio and trade statistic records. The map is sorted by key.
func Read(result *domain.Result, seeds ...domain.StatisticEntry) *domain.Statistics {
	m := domain.NewStatistics()
	for _, s := range seeds {
		m.Insert(s.Name, s.Value)
	}
	if result == nil {
		m.Sort()
		return m
	}

	for _, kv := range result.Statistics {
		AddItem(m, kv.Key, kv.Value)
	}
	for _, kv := range result.RuntimeStatistics {
		AddItem(m, kv.Key, kv.Value)
	}

	ps := &result.TotalPerformance.PortfolioStatistics
	for _, f := range portfolioFields {
		AddItem(m, f.Name, f.Text(ps))
	}
	ts := &result.TotalPerformance.TradeStatistics
	for _, f := range tradeFields {
		AddItem(m, f.Name, f.Text(ts))
	}

	m.Sort()
	return m
}
