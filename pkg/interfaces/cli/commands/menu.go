package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vsinha/quiltplan/pkg/application/services/daycycle"
	"github.com/vsinha/quiltplan/pkg/domain/entities"
	"github.com/vsinha/quiltplan/pkg/interfaces/cli/output"
)

// errInputClosed ends the session when stdin reaches EOF
var errInputClosed = errors.New("input closed")

const menuText = `1. Overview
2. Edit demand for the next %s
3. View requirements for the next %s
4. Order raw materials
5. Close the %s
6. Exit
`

// Menu drives a Controller from a line-oriented terminal session. Errors
// from an operation are printed and the menu is shown again.
type Menu struct {
	controller *daycycle.Controller
	printer    *output.Printer
	in         *bufio.Scanner
	out        io.Writer
}

// NewMenu creates a menu reading choices from in
func NewMenu(controller *daycycle.Controller, printer *output.Printer, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		controller: controller,
		printer:    printer,
		in:         bufio.NewScanner(in),
		out:        out,
	}
}

// Run shows the overview and loops until the user exits or input ends
func (m *Menu) Run(ctx context.Context) error {
	m.overview(ctx)

	unit := strings.ToLower(m.controller.Unit().String())
	for {
		fmt.Fprintf(m.out, menuText, unit, unit, unit)
		choice, err := m.prompt("Choose an option (1-6): ")
		if err != nil {
			return m.exit()
		}

		switch choice {
		case "1":
			m.overview(ctx)
		case "2":
			if err := m.editDemand(ctx); errors.Is(err, errInputClosed) {
				return m.exit()
			}
		case "3":
			m.viewSchedule(ctx)
		case "4":
			m.orderMaterials(ctx)
		case "5":
			m.closeDay(ctx)
		case "6":
			return m.exit()
		default:
			fmt.Fprintf(m.out, "Invalid choice %q, enter a number from 1 to 6\n\n", choice)
		}
	}
}

func (m *Menu) exit() error {
	m.controller.Exit()
	fmt.Fprintln(m.out, "Goodbye.")
	return nil
}

func (m *Menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(m.out)
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

// readQuantity re-prompts until a non-negative integer no larger than
// entities.MaxQuantity is entered
func (m *Menu) readQuantity(variant entities.Variant) (entities.Quantity, error) {
	for {
		text, err := m.prompt(fmt.Sprintf("  %s quantity: ", variant))
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			fmt.Fprintf(m.out, "  %q is not a whole number of units, try again\n", text)
			continue
		}
		if err != nil || entities.Quantity(n) > entities.MaxQuantity {
			fmt.Fprintf(m.out, "  %s is more than %d units, try again\n", text, entities.MaxQuantity)
			continue
		}
		return entities.Quantity(n), nil
	}
}

func (m *Menu) overview(ctx context.Context) {
	overview, err := m.controller.Overview(ctx)
	if err != nil {
		m.printer.Error(err)
		return
	}
	m.report(m.printer.Overview(overview))
}

// editDemand commits only after all three quantities parse
func (m *Menu) editDemand(ctx context.Context) error {
	if err := m.controller.Start(ctx); err != nil {
		m.printer.Error(err)
		return nil
	}
	next := m.controller.Unit().Label(m.controller.Today().Next())
	fmt.Fprintf(m.out, "Demand for %s\n", next)

	var quantities entities.VariantQuantities
	for _, v := range entities.AllVariants() {
		q, err := m.readQuantity(v)
		if err != nil {
			return err
		}
		quantities = quantities.Set(v, q)
	}

	result, err := m.controller.EditDemand(ctx, quantities)
	if err != nil {
		m.printer.Error(err)
		return nil
	}
	m.report(m.printer.Demand(result))
	return nil
}

func (m *Menu) viewSchedule(ctx context.Context) {
	schedule, err := m.controller.ViewSchedule(ctx)
	if err != nil {
		m.printer.Error(err)
		return
	}
	m.report(m.printer.Schedule(schedule))
}

func (m *Menu) orderMaterials(ctx context.Context) {
	result, err := m.controller.OrderMaterials(ctx)
	if err != nil {
		m.printer.Error(err)
		return
	}
	m.report(m.printer.Order(result))
}

func (m *Menu) closeDay(ctx context.Context) {
	result, err := m.controller.CloseDay(ctx)
	if err != nil {
		m.printer.Error(err)
		return
	}
	m.report(m.printer.Close(result))
	m.overview(ctx)
}

func (m *Menu) report(err error) {
	if err != nil {
		m.printer.Error(err)
	}
}
