package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/patternmark/pkg/annotation"
	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/graph"
	"github.com/matzehuels/patternmark/pkg/store"
)

// List styles
var (
	listSelectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	listCandidateStyle = lipgloss.NewStyle().Foreground(colorCyan)
	listNormalStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle       = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle     = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// NodePickerModel - Interactive node selection
// =============================================================================

// NodePickerModel is the bubbletea model for picking the nodes of a new
// annotation. Selection lives in the Store; the model only renders it.
type NodePickerModel struct {
	Nodes   []graph.Node
	Edges   []graph.Edge
	Store   *store.Store
	Cursor  int
	Height  int
	Offset  int
	Created string // id of the created annotation, empty if none
	Err     error

	pattern annotation.PatternType
	subtype string
	label   string
}

// NewNodePickerModel enters selection mode on st and records the draft.
func NewNodePickerModel(d graph.Diagram, st *store.Store, t annotation.PatternType, subtype, label string) NodePickerModel {
	st.SetSelectionMode(true)
	st.SetPendingAnnotation(&store.PendingAnnotation{PatternType: t, PatternSubtype: subtype, Label: label})
	return NodePickerModel{
		Nodes:   d.Nodes,
		Edges:   d.Edges,
		Store:   st,
		Height:  15,
		pattern: t,
		subtype: subtype,
		label:   label,
	}
}

func (m NodePickerModel) Init() tea.Cmd {
	return nil
}

func (m NodePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Store.SetSelectionMode(false)
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Nodes) == 0 {
				return m, nil
			}
			id := m.Nodes[m.Cursor].ID
			if m.selected(id) {
				m.Store.RemoveFromSelection(id)
			} else {
				m.Store.AddToSelection(id)
			}
		case "a":
			for _, id := range m.candidates() {
				m.Store.AddToSelection(id)
			}
		case "backspace":
			m.Store.ClearSelection()
		case "enter":
			if !m.Store.CanCreateAnnotation() {
				m.Err = errors.New(errors.ErrCodeEmptySelection, "select at least one node")
				return m, nil
			}
			id, err := m.Store.CreateAnnotation(m.Store.Selection().SelectedNodeIDs, m.pattern, m.subtype, m.label)
			if err != nil {
				m.Err = err
				return m, nil
			}
			m.Created = id
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m NodePickerModel) selected(id string) bool {
	return slices.Contains(m.Store.Selection().SelectedNodeIDs, id)
}

// candidates returns the unselected neighbors of the current selection.
func (m NodePickerModel) candidates() []string {
	return graph.ConnectedNodeIDs(m.Store.Selection().SelectedNodeIDs, m.Edges)
}

func (m NodePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Nodes"))
	b.WriteString("  ")
	b.WriteString(swatch(m.Store.GetColorForPattern(m.pattern, m.subtype)))
	b.WriteString(" " + listDimStyle.Render(m.pattern.String()+"/"+m.subtype))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a add connected  ⌫ clear  ⏎ create  q quit"))
	b.WriteString("\n\n")

	selection := m.Store.Selection().SelectedNodeIDs
	candidates := m.candidates()
	end := min(m.Offset+m.Height, len(m.Nodes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		switch {
		case slices.Contains(selection, n.ID):
			mark = iconSuccess
		case slices.Contains(candidates, n.ID):
			mark = "+"
		}
		count := ""
		if k := len(m.Store.GetAnnotationsForNode(n.ID)); k > 0 {
			count = strconv.Itoa(k)
		}
		rows = append(rows, []string{cursor, mark, n.ID, n.DisplayLabel(), count})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("", "", "Node", "Label", "Annotations").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Nodes) {
				return lipgloss.NewStyle()
			}
			id := m.Nodes[idx].ID
			style := listNormalStyle
			switch {
			case slices.Contains(selection, id):
				style = listSelectedStyle
			case slices.Contains(candidates, id):
				style = listCandidateStyle
			case col == 4:
				style = listDimStyle
			}
			if idx == m.Cursor {
				style = style.Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d selected · %d connected · [%d/%d]",
		len(selection), len(candidates), m.Cursor+1, len(m.Nodes))))
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(listErrorStyle.Render("  " + errors.UserMessage(m.Err)))
	}

	return b.String()
}
