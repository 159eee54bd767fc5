// File: pkg/formatter/replica_formatter.go
package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"replisync/internal/catalog"
	"replisync/internal/replica"
	"replisync/internal/service"
)

const (
	stateInSync    = "in sync"
	stateOutOfSync = "out of sync"
)

type ReplicaFormatter struct {
	styled bool
}

// NewReplicaFormatter creates a formatter; styled colors the sync state column
func NewReplicaFormatter(styled bool) *ReplicaFormatter {
	return &ReplicaFormatter{styled: styled}
}

func (f *ReplicaFormatter) FormatStoreList(c *catalog.Catalog) string {
	table := NewTable("ID", "CODE", "NAME", "PRIMARY INDEX", "SORTING").AlignRight(0)

	for _, s := range c.Stores() {
		sorting := make([]string, 0, len(s.Sorting))
		for _, attr := range s.Sorting {
			sorting = append(sorting, sortingCell(attr))
		}

		table.AddRow(
			fmt.Sprint(s.ID),
			s.Code,
			s.Name,
			c.PrimaryIndexName(s),
			strings.Join(sorting, ", "),
		)
	}

	return table.String()
}

func (f *ReplicaFormatter) FormatReplicaStatus(statuses []service.StoreStatus) string {
	table := NewTable("STORE", "PRIMARY INDEX", "CURRENT", "DESIRED", "VIRTUAL", "STATUS").AlignRight(2, 3, 4)
	if f.styled {
		table.StyleColumn(5, styleState)
	}

	for _, st := range statuses {
		state := stateInSync
		if !st.InSync() {
			state = stateOutOfSync
		}

		table.AddRow(
			fmt.Sprintf("%s (%d)", st.StoreName, st.StoreID),
			st.IndexName,
			fmt.Sprint(len(st.Current)),
			fmt.Sprint(len(st.Desired)),
			fmt.Sprint(countVirtual(st.Desired)),
			state,
		)
	}

	return table.String()
}

// Lists the replica entries of a single store whose current and desired state differ
func (f *ReplicaFormatter) FormatReplicaDrift(st service.StoreStatus) string {
	var sb strings.Builder

	sb.WriteString(FormatSectionTitle(st.StoreName + ": " + st.IndexName))
	sb.WriteString("\n")

	current := make(map[string]replica.Replica, len(st.Current))
	for _, r := range st.Current {
		current[r.Name] = r
	}
	desired := make(map[string]bool, len(st.Desired))

	table := NewTable("REPLICA", "CHANGE")
	for _, r := range st.Desired {
		desired[r.Name] = true
		have, ok := current[r.Name]
		switch {
		case !ok:
			table.AddRow(r.Setting(), "add")
		case have.Virtual != r.Virtual:
			table.AddRow(r.Setting(), "recreate as "+kindOf(r))
		}
	}
	for _, r := range st.Current {
		if !desired[r.Name] {
			table.AddRow(r.Setting(), "remove")
		}
	}

	if table.Len() == 0 {
		sb.WriteString("Replica order differs only.")
		return sb.String()
	}
	sb.WriteString(table.String())
	return sb.String()
}

func sortingCell(attr replica.SortingAttribute) string {
	cell := replica.SortCriterion(attr)
	if attr.VirtualReplica {
		cell += " (virtual)"
	}
	return cell
}

func styleState(cell string) string {
	color := lipgloss.Color("2")
	if cell == stateOutOfSync {
		color = lipgloss.Color("3")
	}
	return lipgloss.NewStyle().Foreground(color).Render(cell)
}

func countVirtual(list []replica.Replica) int {
	n := 0
	for _, r := range list {
		if r.Virtual {
			n++
		}
	}
	return n
}

func kindOf(r replica.Replica) string {
	if r.Virtual {
		return "virtual"
	}
	return "standard"
}
