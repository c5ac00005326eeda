package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Exarkun1/pylab4/internal/models"
	"github.com/Exarkun1/pylab4/internal/utils"
)

// Tables longer than maxPrintRows are printed as their first and last
// edgeRows rows.
const (
	maxPrintRows = 60
	edgeRows     = 5
)

// WriteTable prints table as aligned columns headed by indexColumn, with
// timestamps shown in loc (UTC when nil). Missing cells print as NaN.
func WriteTable(w io.Writer, table *models.Table, indexColumn string, loc *time.Location) error {
	if indexColumn == "" {
		indexColumn = utils.DefaultIndexColumn
	}
	if loc == nil {
		loc = time.UTC
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	columns := table.Columns()
	header := append([]string{indexColumn}, columns...)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")+"\t"); err != nil {
		return err
	}

	rows := table.Rows()
	truncated := len(rows) > maxPrintRows
	for i, row := range rows {
		if truncated && i == edgeRows {
			dots := make([]string, len(header))
			for j := range dots {
				dots[j] = "..."
			}
			if _, err := fmt.Fprintln(tw, strings.Join(dots, "\t")+"\t"); err != nil {
				return err
			}
		}
		if truncated && i >= edgeRows && i < len(rows)-edgeRows {
			continue
		}

		cells := make([]string, 0, len(header))
		cells = append(cells, row.Time.In(loc).Format("2006-01-02 15:04:05"))
		for _, c := range columns {
			v, ok := row.Values[c]
			if !ok {
				cells = append(cells, "NaN")
				continue
			}
			cells = append(cells, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t"); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n[%d rows x %d columns]\n", len(rows), len(columns))
	return err
}
