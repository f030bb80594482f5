package stats

import (
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"backtestvault/internal/domain"
)

func TestParseInvariant(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.50", "12.5", true},
		{" 1,234.5 ", "1234.5", true},
		{"-3", "-3", true},
		{"+3", "3", true},
		{"3-", "-3", true},
		{"(42.1)", "-42.1", true},
		{"1.5e3", "1500", true},
		{"", "0", false},
		{"abc", "0", false},
		{"1.00:00:00", "0", false},
		{"2016-01-04T15:00:00Z", "0", false},
		{"--3", "0", false},
	}
	for _, c := range cases {
		got, ok := ParseInvariant(c.in)
		if ok != c.ok {
			t.Errorf("ParseInvariant(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("ParseInvariant(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestAddItem(t *testing.T) {
	m := domain.NewStatistics()

	key, ok := AddItem(m, "X", "$12.50")
	if !ok || key != "X$" {
		t.Fatalf("AddItem(X, $12.50) = %q, %v; want X$, true", key, ok)
	}
	if v, _ := m.Get("X$"); !v.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("X$ = %s, want 12.50", v)
	}

	key, ok = AddItem(m, "Y", "45%")
	if !ok || key != "Y%" {
		t.Fatalf("AddItem(Y, 45%%) = %q, %v; want Y%%, true", key, ok)
	}
	if v, _ := m.Get("Y%"); !v.Equal(decimal.NewFromInt(45)) {
		t.Errorf("Y%% = %s, want 45", v)
	}

	if _, ok := AddItem(m, "Z", "n/a"); ok {
		t.Error("unparsable text was added")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
}

func TestAddItemRenamesCollisions(t *testing.T) {
	m := domain.NewStatistics()
	AddItem(m, "X", "$1")
	key, _ := AddItem(m, "X", "$1")
	if key != "X$+" {
		t.Errorf("second key = %q, want X$+", key)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "X$" || keys[1] != "X$+" {
		t.Errorf("keys = %v, want [X$ X$+]", keys)
	}
}

func TestAddItemFallsThroughMarkers(t *testing.T) {
	m := domain.NewStatistics()
	// "$" present but the remainder does not parse; the "%" rule applies.
	key, ok := AddItem(m, "Odd", "$x 5%")
	if ok {
		t.Errorf("AddItem(Odd) = %q, want skipped", key)
	}
	key, ok = AddItem(m, "Plain", "7")
	if !ok || key != "Plain" {
		t.Errorf("AddItem(Plain, 7) = %q, %v", key, ok)
	}
}

func TestRead(t *testing.T) {
	result := &domain.Result{
		Statistics: []domain.StringPair{
			{Key: "Net Profit", Value: "1.5%"},
			{Key: "Total Fees", Value: "$2.00"},
			{Key: "Comment", Value: "none"},
		},
		RuntimeStatistics: []domain.StringPair{
			{Key: "Equity", Value: "$100,025.50"},
		},
		TotalPerformance: domain.Performance{
			PortfolioStatistics: domain.PortfolioStatistics{
				SharpeRatio:      decimal.RequireFromString("1.25"),
				DrawdownRecovery: 3,
			},
			TradeStatistics: domain.TradeStatistics{
				StartDateTime:        "2016-01-04T15:00:00Z",
				AverageTradeDuration: "1.00:00:00",
				TotalNumberOfTrades:  4,
				SharpeRatio:          decimal.RequireFromString("0.5"),
			},
		},
	}

	seeds := []domain.StatisticEntry{
		{Name: "Score", Value: decimal.RequireFromString("0.1234")},
		{Name: "ATH Score", Value: decimal.RequireFromString("0.5")},
	}
	m := Read(result, seeds...)

	keys := m.Keys()
	if !sort.StringsAreSorted(keys) {
		t.Errorf("keys not sorted: %v", keys)
	}

	want := map[string]string{
		"Score":               "0.1234",
		"ATH Score":           "0.5",
		"Net Profit%":         "1.5",
		"Total Fees$":         "2",
		"Equity$":             "100025.5",
		"SharpeRatio":         "1.25",
		"SharpeRatio+":        "0.5",
		"DrawdownRecovery":    "3",
		"TotalNumberOfTrades": "4",
	}
	for k, v := range want {
		got, ok := m.Get(k)
		if !ok {
			t.Errorf("missing key %q", k)
			continue
		}
		if !got.Equal(decimal.RequireFromString(v)) {
			t.Errorf("%s = %s, want %s", k, got, v)
		}
	}
	for _, k := range []string{"Comment", "StartDateTime", "AverageTradeDuration"} {
		if _, ok := m.Get(k); ok {
			t.Errorf("key %q should have been dropped", k)
		}
	}
}

func TestReadNilResult(t *testing.T) {
	m := Read(nil, domain.StatisticEntry{Name: "Score", Value: decimal.NewFromInt(1)})
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}
