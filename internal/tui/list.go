package tui

import (
	"fmt"
	"strings"

	"shelflife/internal/service"
)

// ListModel renders the product list the server keeps sorted: soonest expiry
// first, undated products last.
type ListModel struct {
	styles   Styles
	products []*service.ProductView
	cursor   int
}

func NewListModel() ListModel {
	return ListModel{styles: DefaultStyles()}
}

// SetProducts replaces the list with a fresh snapshot, keeping the cursor on
// a valid row.
func (m *ListModel) SetProducts(products []*service.ProductView) {
	m.products = products
	if m.cursor >= len(products) {
		m.cursor = len(products) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the product under the cursor, or nil when the list is
// empty.
func (m *ListModel) Selected() *service.ProductView {
	if len(m.products) == 0 {
		return nil
	}
	return m.products[m.cursor]
}

func (m *ListModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *ListModel) MoveDown() {
	if m.cursor < len(m.products)-1 {
		m.cursor++
	}
}

// View renders the list.
func (m ListModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Shelf life"))
	sb.WriteString("\n")

	if len(m.products) == 0 {
		sb.WriteString(m.styles.Help.Render("No products yet. Press 'n' to add one."))
		sb.WriteString("\n")
	}

	for i, p := range m.products {
		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Cursor.Render("> ")
		}

		badge := m.styles.Severity[p.Status.Severity].Render(string(p.Status.Severity))
		name := fmt.Sprintf("%s %s", p.Brand, p.Name)

		sb.WriteString(fmt.Sprintf("%s%-40s %s %s\n",
			cursor, truncate(name, 40), badge, m.styles.Help.Render(p.Status.Label)))
	}

	sb.WriteString("\n" + m.styles.Help.Render("n new · enter edit · d delete · q quit"))
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
