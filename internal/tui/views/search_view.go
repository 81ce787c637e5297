package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/At1ass/VK-TUI/internal/domain"
)

// SearchView is the search input plus a result table. Selecting a
// result jumps to the message in its conversation.
type SearchView struct {
	*tview.Flex
	input    *tview.InputField
	table    *tview.Table
	results  []domain.SearchResult
	onQuery  func(query string)
	onSelect func(res domain.SearchResult)
}

// NewSearchView creates a new search view.
func NewSearchView() *SearchView {
	input := tview.NewInputField().
		SetLabel(" / ").
		SetFieldWidth(0)

	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(table, 0, 1, false)
	flex.SetBorder(true).SetTitle(" Search ")

	sv := &SearchView{
		Flex:  flex,
		input: input,
		table: table,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			if q := input.GetText(); q != "" {
				sv.onQuery(q)
			}
		}
	})
	table.SetSelectedFunc(func(row, _ int) {
		idx := row - 1
		if idx >= 0 && idx < len(sv.results) && sv.onSelect != nil {
			sv.onSelect(sv.results[idx])
		}
	})

	return sv
}

// SetOnQuery sets the callback fired when a query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// SetOnSelect sets the callback fired when a result is chosen.
func (sv *SearchView) SetOnSelect(fn func(res domain.SearchResult)) {
	sv.onSelect = fn
}

// Input exposes the query field for focus management.
func (sv *SearchView) Input() *tview.InputField { return sv.input }

// Table exposes the result table for focus management.
func (sv *SearchView) Table() *tview.Table { return sv.table }

// Update refreshes the result table.
func (sv *SearchView) Update(results []domain.SearchResult) {
	sv.results = results
	sv.table.Clear()

	sv.table.SetCell(0, 0, tview.NewTableCell(" Chat").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sv.table.SetCell(0, 1, tview.NewTableCell(" From").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sv.table.SetCell(0, 2, tview.NewTableCell(" Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	sv.table.SetCell(0, 3, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, res := range results {
		row := i + 1
		sv.table.SetCell(row, 0, tview.NewTableCell(" "+res.ChatTitle).SetMaxWidth(24).SetExpansion(1))
		sv.table.SetCell(row, 1, tview.NewTableCell(" "+res.FromName).SetMaxWidth(20))
		sv.table.SetCell(row, 2, tview.NewTableCell(" "+firstLine(res.Text)).SetMaxWidth(50).SetExpansion(2))
		sv.table.SetCell(row, 3, tview.NewTableCell(" "+formatTimestamp(res.Timestamp)).SetMaxWidth(12))
	}
	if len(results) > 0 {
		sv.table.Select(1, 0)
	}
}
