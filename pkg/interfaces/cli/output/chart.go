package output

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/quiltplan/pkg/domain/entities"
)

// StockChart lays out closing stock per period as grouped SVG bars
type StockChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	Unit         entities.PeriodUnit
}

// NewStockChart creates a chart sized for n periods
func NewStockChart(unit entities.PeriodUnit, n int) *StockChart {
	width := 200 + n*60
	if width < 600 {
		width = 600
	}
	return &StockChart{
		Width:        width,
		Height:       320,
		MarginLeft:   70,
		MarginTop:    50,
		MarginRight:  30,
		MarginBottom: 60,
		Unit:         unit,
	}
}

var materialColors = map[entities.Material]string{
	entities.Cotton: "#4A90E2",
	entities.Fibre:  "#F5A623",
}

// GenerateSVG renders the stock history; open snapshots are drawn hatched
func (sc *StockChart) GenerateSVG(history []entities.StockSnapshot) string {
	var svg strings.Builder

	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, sc.Width, sc.Height)
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.label { font-family: Arial, sans-serif; font-size: 11px; fill: #333; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.axis { stroke: #999; stroke-width: 1; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(`<pattern id="open" width="6" height="6" patternUnits="userSpaceOnUse" patternTransform="rotate(45)">`)
	svg.WriteString(`<rect width="3" height="6" fill="#fff" fill-opacity="0.5"/></pattern>`)
	svg.WriteString(`</defs>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, sc.Width, sc.Height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Raw Material Stock</text>`, sc.Width/2)

	if len(history) == 0 {
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label" text-anchor="middle">No stock recorded yet</text>`,
			sc.Width/2, sc.Height/2)
		svg.WriteString(`</svg>`)
		return svg.String()
	}

	baseline := sc.Height - sc.MarginBottom
	plotHeight := baseline - sc.MarginTop
	slot := (sc.Width - sc.MarginLeft - sc.MarginRight) / len(history)
	barWidth := slot / 3
	if barWidth < 4 {
		barWidth = 4
	}

	peak := sc.peak(history)
	fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="axis"/>`,
		sc.MarginLeft, baseline, sc.Width-sc.MarginRight, baseline)
	fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label" text-anchor="end">%s</text>`,
		sc.MarginLeft-6, sc.MarginTop+4, peak.StringFixed(0))

	for i, snapshot := range history {
		x := sc.MarginLeft + i*slot + (slot-2*barWidth)/2
		for j, material := range entities.AllMaterials() {
			amount := snapshot.Materials.Get(material)
			h := scale(amount, peak, plotHeight)
			fmt.Fprintf(&svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s %s: %s%s</title></rect>`,
				x+j*barWidth, baseline-h, barWidth, h, materialColors[material],
				sc.Unit.Label(snapshot.Period), material, amount.StringFixed(2), material.Unit())
			if snapshot.Status == entities.Open {
				fmt.Fprintf(&svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="url(#open)"/>`,
					x+j*barWidth, baseline-h, barWidth, h)
			}
		}
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label" text-anchor="middle">%d</text>`,
			x+barWidth, baseline+15, snapshot.Period)
	}

	sc.drawLegend(&svg)
	svg.WriteString(`</svg>`)
	return svg.String()
}

func (sc *StockChart) peak(history []entities.StockSnapshot) decimal.Decimal {
	peak := decimal.Zero
	for _, snapshot := range history {
		for _, material := range entities.AllMaterials() {
			peak = decimal.Max(peak, snapshot.Materials.Get(material))
		}
	}
	return peak
}

// scale maps amount onto [0, height] pixels relative to peak
func scale(amount, peak decimal.Decimal, height int) int {
	if !peak.IsPositive() {
		return 0
	}
	return int(amount.Div(peak).Mul(decimal.NewFromInt(int64(height))).Round(0).IntPart())
}

func (sc *StockChart) drawLegend(svg *strings.Builder) {
	y := sc.Height - 20
	x := sc.MarginLeft
	for _, material := range entities.AllMaterials() {
		fmt.Fprintf(svg, `<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`, x, y-10, materialColors[material])
		fmt.Fprintf(svg, `<text x="%d" y="%d" class="label">%s (%s)</text>`, x+16, y, material, material.Unit())
		x += 120
	}
	fmt.Fprintf(svg, `<text x="%d" y="%d" class="label">hatched = ordered, not yet closed</text>`, x, y)
}
