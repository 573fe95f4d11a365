package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vsinha/quiltplan/pkg/application/dto"
	"github.com/vsinha/quiltplan/pkg/application/services/daycycle"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/domain/repositories"
	"github.com/vsinha/quiltplan/pkg/domain/services/planning"
)

// Printer renders day cycle results as text or JSON
type Printer struct {
	w      io.Writer
	unit   entities.PeriodUnit
	format string
}

// NewPrinter creates a printer; format is "text" or "json"
func NewPrinter(w io.Writer, unit entities.PeriodUnit, format string) (*Printer, error) {
	switch format {
	case "", "text":
		format = "text"
	case "json":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Printer{w: w, unit: unit, format: format}, nil
}

func (p *Printer) label(period entities.Period) string {
	return p.unit.Label(period)
}

func (p *Printer) json(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func quantities(q entities.VariantQuantities) string {
	return fmt.Sprintf("Single %d, Double %d, King %d", q.Single, q.Double, q.King)
}

// Overview prints stock, finished goods and demand for today and tomorrow
func (p *Printer) Overview(o *dto.Overview) error {
	if p.format == "json" {
		return p.json(o)
	}

	title := fmt.Sprintf("📊 %s Overview", p.label(o.Today))
	p.printf("%s\n", title)
	p.printf("%s\n", underline(title))
	p.printf("%-22s %s [%s]\n", "Raw material stock:", o.Stock.Materials, o.Stock.Status)
	p.printf("%-22s %s\n", "Finished goods:", quantities(o.Finished.Units))
	p.printf("%-22s %s\n", "Demand "+p.label(o.Today)+":", demandText(o.TodayDemand))
	p.printf("%-22s %s\n", "Demand "+p.label(o.Today.Next())+":", demandText(o.TomorrowDemand))
	if o.OrderedFor != nil {
		p.printf("Materials ordered for %s\n", p.label(*o.OrderedFor))
	}
	p.printf("\n")
	return nil
}

func demandText(record *entities.DemandRecord) string {
	if record == nil {
		return "none recorded"
	}
	return quantities(record.Quantities)
}

func underline(title string) string {
	return strings.Repeat("=", utf8.RuneCountInString(title))
}

// Schedule prints a production schedule
func (p *Printer) Schedule(s *dto.DaySchedule) error {
	if p.format == "json" {
		return p.json(s)
	}

	p.printf("📋 Requirements for %s\n", p.label(s.Period))
	if s.NoOrders {
		p.printf("No orders yet for %s\n\n", p.label(s.Period))
		return nil
	}
	if short := s.HistoryShortfall(); short != nil {
		p.historyWarning(short)
		p.printf("%-22s %s\n", "Demand:", quantities(s.Demand))
		p.printf("%-22s %s\n\n", "Materials for demand:", s.Materials)
		return nil
	}

	p.printf("%-8s %-8s %-10s %-8s\n", "Variant", "Demand", "Required", "Produce")
	p.printf("%-8s %-8s %-10s %-8s\n", "--------", "--------", "----------", "--------")
	for _, v := range entities.AllVariants() {
		p.printf("%-8s %-8d %-10d %-8d\n", v, s.Demand.Get(v), s.Required.Get(v), s.Produce.Get(v))
	}
	p.printf("Materials needed: %s\n", s.Materials)
	p.printf("Average over the last %d %s(s)\n\n", s.Lookback, strings.ToLower(p.unit.String()))
	return nil
}

// Demand prints the outcome of a demand edit
func (p *Printer) Demand(r *dto.DemandResult) error {
	if p.format == "json" {
		return p.json(r)
	}
	verb := "Recorded"
	if r.Updated {
		verb = "Updated"
	}
	p.printf("✅ %s demand for %s: %s\n\n", verb, p.label(r.Record.Period), quantities(r.Record.Quantities))
	return nil
}

// Order prints the outcome of a material order
func (p *Printer) Order(r *dto.OrderResult) error {
	if p.format == "json" {
		return p.json(r)
	}

	switch {
	case r.AlreadyOrdered:
		p.printf("Materials already ordered for %s\n\n", p.label(r.Period))
	case r.NoOrders:
		p.printf("No orders yet for %s; nothing to order\n\n", p.label(r.Period))
	case r.Ordered.IsZero():
		p.printf("Stock covers %s (needs %s); nothing ordered\n\n", p.label(r.Period), r.Required)
	default:
		if r.NoProjection != nil {
			p.historyWarning(r.NoProjection)
		}
		p.printf("📦 Ordered %s for %s\n", r.Ordered, p.label(r.Period))
		p.printf("%-22s %s\n", "Required:", r.Required)
		p.printf("%-22s %s\n\n", "Stock now:", r.StockAfter)
	}
	return nil
}

// Close prints the outcome of a successful day close
func (p *Printer) Close(r *dto.CloseResult) error {
	if p.format == "json" {
		return p.json(r)
	}

	p.printf("✅ Closed %s\n", p.label(r.Closed))
	p.printf("%-22s %s\n", "Materials used:", r.Used)
	if !r.Overdraw.IsZero() {
		p.printf("⚠️  Usage exceeded stock by %s; stock stays at zero\n", r.Overdraw)
	}
	p.printf("%-22s %s\n", "Stock:", r.Stock.Materials)
	p.printf("%-22s %s\n", "Finished goods:", quantities(r.Finished.Units))
	p.printf("Now %s\n\n", p.label(r.NewPeriod))
	if r.NoProjection != nil {
		p.historyWarning(r.NoProjection)
	}
	return nil
}

func (p *Printer) historyWarning(history *planning.InsufficientHistoryError) {
	p.printf("⚠️  Not enough demand history: have %d record(s), need %d. No production numbers available.\n",
		history.Have, history.Need)
}

// Error prints err in the category it belongs to. It always prints text.
func (p *Printer) Error(err error) {
	var (
		history    *planning.InsufficientHistoryError
		infeasible *daycycle.InfeasibleError
	)
	switch {
	case errors.As(err, &history):
		p.historyWarning(history)
		p.printf("\n")
	case errors.As(err, &infeasible):
		p.printf("❌ Cannot close the day: stock does not cover %s\n", p.label(infeasible.Period))
		p.printf("%-22s %s\n", "Short by:", infeasible.Shortfall)
		p.printf("Order raw materials first.\n\n")
	case errors.Is(err, repositories.ErrStoreUnavailable):
		p.printf("❌ Store unavailable: %v\n\n", err)
	case errors.Is(err, daycycle.ErrTerminated):
		p.printf("Session has ended.\n")
	default:
		p.printf("❌ Error: %v\n\n", err)
	}
}
