package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Centralized styles for consistent output across commands.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Width(10)
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	contentStyle = lipgloss.NewStyle().Padding(1, 2)
	columnStyle  = lipgloss.NewStyle().PaddingRight(2)
	thStyle      = columnStyle.Bold(true).Foreground(lipgloss.Color("213"))
)

// renderTable lays out rows in left-aligned columns sized to their widest cell
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, renderRow(headers, widths, thStyle))
	for _, row := range rows {
		lines = append(lines, renderRow(row, widths, columnStyle))
	}
	return strings.Join(lines, "\n")
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	rendered := make([]string, len(cells))
	for i, cell := range cells {
		rendered[i] = style.Width(widths[i] + 2).Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
