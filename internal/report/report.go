// Package report prints rosters and battle outcomes for the terminal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/OCAP2/battlesim/pkg/core"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Printer writes colored tables to w.
type Printer struct {
	w       io.Writer
	title   *color.Color
	success *color.Color
	warn    *color.Color
	info    *color.Color
}

func New(w io.Writer) *Printer {
	return &Printer{
		w:       w,
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgYellow),
	}
}

// Banner prints the opening header with the battle settings.
func (p *Printer) Banner(b core.Battle) {
	p.title.Fprintln(p.w, "\n╭──────────────────────╮")
	p.title.Fprintln(p.w, "│  Battle Simulator    │")
	p.title.Fprintln(p.w, "╰──────────────────────╯")
	fmt.Fprintf(p.w, "   Battle:     %s\n", b.ID)
	fmt.Fprintf(p.w, "   Seed:       %d\n", b.Seed)
	fmt.Fprintf(p.w, "   Resolution: %s\n", b.Resolution)
	fmt.Fprintf(p.w, "   Time scale: x%g\n", b.TimeScale)
	fmt.Fprintln(p.w)
}

// Roster prints one row per army with its combined strength.
func (p *Printer) Roster(armies []core.ArmyRecord) {
	fmt.Fprintln(p.w, "📋 Armies:")

	table := tablewriter.NewTable(p.w,
		tablewriter.WithHeader([]string{"Army", "Strategy", "Squads", "Units", "Health", "Experience", "Points"}),
	)
	for _, a := range armies {
		var units int
		var health, exp, points float64
		for _, s := range a.Squads {
			units += len(s.Units)
			health += s.TotalHealth
			exp += s.TotalExperience
			points += s.Points
		}
		_ = table.Append([]string{
			a.Name,
			a.Strategy,
			fmt.Sprintf("%d", len(a.Squads)),
			fmt.Sprintf("%d", units),
			fmt.Sprintf("%.0f", health),
			fmt.Sprintf("%.0f", exp),
			fmt.Sprintf("%.1f", points),
		})
	}
	_ = table.Render()
}

// Squads prints the state of every squad.
func (p *Printer) Squads(armies []core.ArmyRecord) {
	fmt.Fprintln(p.w, "\n📦 Squads:")

	table := tablewriter.NewTable(p.w,
		tablewriter.WithHeader([]string{"Army", "Squad", "State", "Units Alive", "Health", "Damage"}),
	)
	for _, a := range armies {
		for _, s := range a.Squads {
			_ = table.Append([]string{
				a.Name,
				s.Name,
				s.State,
				fmt.Sprintf("%d/%d", aliveUnits(s.Units), len(s.Units)),
				fmt.Sprintf("%.1f", s.TotalHealth),
				fmt.Sprintf("%.2f", s.AttackDamage),
			})
		}
	}
	_ = table.Render()
}

// Outcome prints the winner banner and the battle duration.
func (p *Printer) Outcome(o core.Outcome) {
	fmt.Fprintln(p.w)
	switch {
	case o.Cancelled:
		p.warn.Fprintf(p.w, "⚠ Battle interrupted after %s\n", o.Duration.Round(time.Millisecond))
	case o.Winner != "":
		p.success.Fprintf(p.w, "✓ %s wins!\n", o.Winner)
	case len(o.Survivors) == 0:
		p.warn.Fprintln(p.w, "✗ No army survived")
	default:
		p.warn.Fprintf(p.w, "= Tie between %v\n", o.Survivors)
	}
	fmt.Fprintf(p.w, "   Duration: %s\n", o.Duration.Round(time.Millisecond))
}

// Exported notes where the after-action file was written.
func (p *Printer) Exported(path string) {
	if path == "" {
		return
	}
	p.info.Fprintf(p.w, "   Report:   %s\n", path)
}

func aliveUnits(units []core.UnitRecord) int {
	n := 0
	for _, u := range units {
		if u.Active {
			n++
		}
	}
	return n
}
