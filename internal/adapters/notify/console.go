package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// maxRows keeps the table readable in a terminal; the store holds the rest.
const maxRows = 15

// Console implements ports.Notifier by printing to stdout: a compact
// one-liner per cycle by default, full tables with -table.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyOpportunities prints the ranked opportunity set.
func (c *Console) NotifyOpportunities(_ context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		fmt.Fprintf(c.out, "[%s] no active opportunities\n", time.Now().Format("15:04:05"))
		return nil
	}
	if c.table {
		c.printOpportunityTable(opps)
	} else {
		c.printCompact(opps)
	}
	return nil
}

// NotifyPositions prints open positions with live P&L.
func (c *Console) NotifyPositions(_ context.Context, positions []domain.Position) error {
	if len(positions) == 0 || !c.table {
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Token", "Net", "Strategy", "Entry", "Current", "Invested", "PnL", "PnL%", "Age")

	now := time.Now().UTC()
	for _, pos := range positions {
		table.Append(
			pos.Token,
			pos.Network,
			string(pos.Strategy),
			fmt.Sprintf("%.6f", pos.EntryPrice),
			fmt.Sprintf("%.6f", pos.CurrentPrice),
			fmt.Sprintf("$%.2f", pos.InvestedUSD),
			fmt.Sprintf("$%.2f", pos.UnrealizedPnL),
			fmt.Sprintf("%+.2f%%", pos.PnLPercent),
			pos.Age(now).Round(time.Minute).String(),
		)
	}
	table.Render()
	return nil
}

// printCompact prints the essentials on one line.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d opportunities", now, len(opps))

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | %s %s %s conf %.2f exp %.1f%%",
			opp.Strategy, truncate(opp.Token, 12), opp.Signal, opp.Confidence, opp.ExpectedProfit)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printOpportunityTable prints the full ranked table.
func (c *Console) printOpportunityTable(opps []domain.Opportunity) {
	fmt.Fprintf(c.out, "\n[%s] %d active opportunities\n", time.Now().Format("15:04:05"), len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Token", "Net", "Signal", "Conf", "Exp%", "Risk", "Entry", "Target", "Stop", "Size")

	for i, opp := range opps {
		if i >= maxRows {
			break
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(opp.Strategy),
			truncate(opp.Token, 12),
			opp.Network,
			string(opp.Signal),
			fmt.Sprintf("%.2f", opp.Confidence),
			fmt.Sprintf("%.2f", opp.ExpectedProfit),
			fmt.Sprintf("%.2f", opp.RiskScore),
			fmt.Sprintf("%.6f", opp.EntryPrice),
			fmt.Sprintf("%.6f", opp.TargetPrice),
			fmt.Sprintf("%.6f", opp.StopPrice),
			fmt.Sprintf("$%.0f", opp.Size),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Conf = evaluator confidence | Exp% = expected profit | Risk = [0,1] downside estimate")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
