package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SanjoDeundiak/forge/pkg/lib"
	"github.com/SanjoDeundiak/forge/pkg/lib/lifecycle"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PID", "STATE", "COMMAND").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(rows...)
	return t.String()
}

func printSessionTable(w io.Writer, session *lifecycle.Session, path string) {
	var rows [][]string
	if session.Launched {
		inst := session.Instance
		cmd := strings.TrimSpace(strings.Join(append([]string{inst.Path}, inst.Args...), " "))
		rows = append(rows, []string{strconv.Itoa(inst.PID), "Started", cmd})
	} else {
		for _, pid := range session.PIDs {
			rows = append(rows, []string{strconv.Itoa(pid), "Already running", path})
		}
	}
	fmt.Fprintln(w, renderTable(rows))
}

func printHandlesTable(w io.Writer, handles []lib.ProcessHandle) {
	rows := make([][]string, 0, len(handles))
	for _, h := range handles {
		rows = append(rows, []string{strconv.Itoa(h.PID), lib.ProcessStateRunning.String(), h.Command})
	}
	fmt.Fprintln(w, renderTable(rows))
}
