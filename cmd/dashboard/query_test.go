package main

import (
	"errors"
	"testing"

	"PortfolioAnalysis/internal/model"
)

func TestParseAmounts(t *testing.T) {
	tickers, amounts, err := parseAmounts("aaa=1000, BBB=250.5,CCC=12345678901234.123456789")
	if err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 3 || tickers[0] != "AAA" || tickers[1] != "BBB" || tickers[2] != "CCC" {
		t.Errorf("unexpected tickers %v", tickers)
	}
	if amounts["AAA"].String() != "1000" || amounts["BBB"].String() != "250.5" {
		t.Errorf("unexpected amounts %v", amounts)
	}
	if got := amounts["CCC"].String(); got != "12345678901234.123456789" {
		t.Errorf("expected exact amount, got %s", got)
	}

	for _, bad := range []string{"", "AAA", "AAA=x"} {
		if _, _, err := parseAmounts(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
	if _, _, err := parseAmounts("AAA=-1"); !errors.Is(err, model.ErrNegativeAmount) {
		t.Errorf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestRangeFlags(t *testing.T) {
	r := rangeFlags{start: "2024-01-01"}
	sel, err := r.selection("2006-01-02", []string{"AAA"})
	if err != nil {
		t.Fatal(err)
	}
	if sel.Start.Format("2006-01-02") != "2024-01-01" || !sel.End.IsZero() {
		t.Errorf("unexpected selection %+v", sel)
	}

	r.end = "yesterday"
	if _, err := r.selection("2006-01-02", nil); err == nil {
		t.Error("expected error for invalid -end")
	}
}
