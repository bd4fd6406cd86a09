package cli

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/pipeline"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// writeResult writes snap to w in the given format. Every format lists the
// (major, minor) lines in ascending order.
func writeResult(w io.Writer, snap versions.Snapshot, format string) error {
	switch format {
	case pipeline.FormatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return herrors.Wrap(herrors.ErrCodeInternal, err, "encode json")
		}
		_, err = w.Write(append(data, '\n'))
		return err

	case pipeline.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return herrors.Wrap(herrors.ErrCodeInternal, err, "encode yaml")
		}
		return enc.Close()

	case pipeline.FormatTable:
		printTo(w, "%s", renderTable(snap))
		return nil

	default:
		return pipeline.ValidateFormat(format)
	}
}

// renderTable renders snap as a two-column table.
func renderTable(snap versions.Snapshot) string {
	rows := make([][]string, 0, snap.Len())
	for _, e := range snap {
		rows = append(rows, []string{e.Key.String(), e.Version.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Line", "Latest").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return StyleHighlight.Padding(0, 1)
			default:
				return StyleValue.Padding(0, 1)
			}
		})
	return t.String()
}
