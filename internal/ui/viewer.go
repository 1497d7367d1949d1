package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"igtdoc/internal/domain"
)

// Viewer displays a subtest listing in an interactive TUI
type Viewer interface {
	View(title string, subtests []*domain.Subtest) error
}

// CatalogViewer browses subtests and their effective fields
type CatalogViewer struct{}

// NewCatalogViewer creates a new CatalogViewer
func NewCatalogViewer() *CatalogViewer {
	return &CatalogViewer{}
}

// View runs the browser until Ctrl+C or q.
func (cv *CatalogViewer) View(title string, subtests []*domain.Subtest) error {
	if len(subtests) == 0 {
		color.Yellow("No subtests match the current filters")
		return nil
	}

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	for i, s := range subtests {
		list.AddItem(listItemText(i, s), "", 0, nil)
	}
	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	documented := 0
	for _, s := range subtests {
		if s.Documented {
			documented++
		}
	}
	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(fmt.Sprintf(" %s (%d subtests, %d documented) | ↑↓ navigate, → details, ← back, q to exit ",
			tview.Escape(title), len(subtests), documented))

	updateDetails := func() {
		index := list.GetCurrentItem()
		if index >= 0 && index < len(subtests) {
			statsView.SetText(formatSubtestStats(subtests[index]))
			detailsView.SetText(formatSubtestDetails(subtests[index]))
			detailsView.ScrollToBeginning()
		}
	}

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// listItemText renders a list entry; planned-only subtests are grayed out.
func listItemText(index int, s *domain.Subtest) string {
	name := tview.Escape(s.IGTName())
	if !s.Documented {
		return fmt.Sprintf("[gray]%d. %s[white]", index+1, name)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", index+1, name)
}

// formatSubtestStats renders the header above the details pane.
func formatSubtestStats(s *domain.Subtest) string {
	location := "planned only"
	if s.Documented {
		location = s.File
		if s.Line > 0 {
			location = fmt.Sprintf("%s:%d", s.File, s.Line)
		}
	}
	return fmt.Sprintf("[cyan]subtest:[white] %s\n[cyan]path:[white] [yellow]%s[white]\n[cyan]source:[white] %s\n",
		tview.Escape(s.DisplayName()), tview.Escape(s.Path()), tview.Escape(location))
}

// formatSubtestDetails lists the effective fields using tview color tags.
func formatSubtestDetails(s *domain.Subtest) string {
	var builder strings.Builder
	w := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "[green]%s[white]\n\n", tview.Escape(s.IGTName()))
	if s.Test != nil && s.Test.Summary != "" {
		fmt.Fprintf(w, "[yellow]Summary:[white]\t%s\n", tview.Escape(s.Test.Summary))
	}
	for _, f := range s.Effective.All() {
		fmt.Fprintf(w, "[yellow]%s:[white]\t%s\n", tview.Escape(f.Name), tview.Escape(f.Value))
	}
	if s.Effective.Len() == 0 {
		fmt.Fprintf(w, "[gray](no fields)[white]\n")
	}

	w.Flush()
	return builder.String()
}

var _ Viewer = (*CatalogViewer)(nil)
