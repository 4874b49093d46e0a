package notifier

import (
	"fmt"
	"html"
	"strings"

	"PortfolioAnalysis/internal/calculator"
	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders a dollar amount, e.g. "$1,100.00".
func FormatMoney(d decimal.Decimal) string {
	return money.NewFromFloat(d.InexactFloat64(), money.USD).Display()
}

// FormatPortfolio formats the normalized returns overview.
func FormatPortfolio(res *dashboard.PortfolioResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Portfolio</b> | %s → %s\n\n",
		res.Start.Format(model.DateFormat), res.End.Format(model.DateFormat)))

	if res.Empty {
		b.WriteString("ℹ️ " + res.Message + "\n")
		writeWarnings(&b, res.Warnings)
		return b.String()
	}

	for _, s := range res.Summaries {
		b.WriteString(fmt.Sprintf("<b>%s</b>: %s (high %s, low %s)\n",
			html.EscapeString(s.Ticker),
			calculator.FormatPercent(s.PricePctLast),
			calculator.FormatPercent(s.PricePctHigh),
			calculator.FormatPercent(s.PricePctLow)))
		b.WriteString(fmt.Sprintf("   %.2f → %.2f, %d days\n", s.PriceStart, s.PriceLast, s.Observations))
	}
	writeWarnings(&b, res.Warnings)
	return b.String()
}

// FormatGoal formats the goal calculator outcome.
func FormatGoal(res *dashboard.GoalResult) string {
	if res.Projection == nil {
		return FormatPortfolio(res.PortfolioResult)
	}
	p := res.Projection

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>Goal calculator</b> | %s → %s\n\n",
		res.Start.Format(model.DateFormat), res.End.Format(model.DateFormat)))
	b.WriteString(fmt.Sprintf("Total Investments: %s\n", FormatMoney(p.TotalInvested)))
	b.WriteString(fmt.Sprintf("Goal: %s\n", FormatMoney(p.Goal)))
	b.WriteString(fmt.Sprintf("Value at end: %s\n\n", FormatMoney(p.FinalValue)))
	if p.Reached {
		b.WriteString(fmt.Sprintf("✅ Goal reached on %s\n", p.GoalDate.Format(model.DateFormat)))
	} else {
		b.WriteString("ℹ️ " + dashboard.MsgGoalUnreachable + "\n")
	}
	writeWarnings(&b, res.Warnings)
	return b.String()
}

// FormatSearch formats catalog search hits.
func FormatSearch(query string, recs []model.SymbolRecord) string {
	if len(recs) == 0 {
		return fmt.Sprintf("No symbols match %q", html.EscapeString(query))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%d matches</b>\n", len(recs)))
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("• <code>%s</code> %s (%s)\n",
			html.EscapeString(r.Symbol), html.EscapeString(r.Name), r.AssetClass))
	}
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []model.Warning) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n⚠️ <b>Warnings</b>\n")
	for _, w := range warnings {
		b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(w.Symbol), html.EscapeString(w.Message)))
	}
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "")

// PlainText turns a formatted report into terminal text.
func PlainText(s string) string {
	return html.UnescapeString(tagStripper.Replace(s))
}
