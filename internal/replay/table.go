package replay

import "github.com/nao1215/replaysheet/internal/model"

// Materialize builds the final table from reconstructed rows.
//
// The first row becomes the headers. Every following row is padded with
// empty cells or truncated so it has exactly len(headers) cells. Extra
// trailing cells are discarded. An empty row list or an empty first row
// yields an empty table.
func Materialize(rows []model.Row) *model.Table {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return model.NewEmptyTable()
	}

	headers := rows[0].Texts()
	width := len(headers)

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data = append(data, fitWidth(row.Texts(), width))
	}

	return &model.Table{Headers: headers, Rows: data}
}

// fitWidth pads or truncates cells to exactly width entries.
func fitWidth(cells []string, width int) []string {
	if len(cells) >= width {
		return cells[:width:width]
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
