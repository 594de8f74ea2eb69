package proctable

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// parsePIDLines parses newline-delimited PIDs, skipping anything that is not
// a positive integer.
func parsePIDLines(out []byte) []int {
	pids := []int{}
	for _, field := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(field)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// tasklistRow is one record of `tasklist /FO CSV /NH`:
// "pocketbase.exe","1234","Console","1","25,000 K"
type tasklistRow struct {
	Image string
	PID   int
}

func parseTasklist(out []byte) []tasklistRow {
	r := csv.NewReader(strings.NewReader(string(out)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		logger().Debug("unparseable tasklist output", "err", err)
		return nil
	}

	rows := make([]tasklistRow, 0, len(records))
	for _, rec := range records {
		// "INFO: No tasks are running which match the specified criteria."
		if len(rec) < 2 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil || pid <= 0 {
			continue
		}
		rows = append(rows, tasklistRow{Image: strings.TrimSpace(rec[0]), PID: pid})
	}
	return rows
}
