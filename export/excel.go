package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"demandflow/request"
)

const (
	sheetName  = "需求列表"
	timeLayout = "2006-01-02 15:04"
)

var headers = []string{
	"需求标题", "需求描述", "研究方向", "需求类型", "机构名称", "机构类型",
	"提交人", "研究员", "工时", "状态", "保密", "提交时间", "完成时间", "结果说明",
}

var colWidths = []float64{24, 36, 14, 14, 20, 12, 12, 12, 8, 10, 8, 18, 18, 36}

// Row is one exported line as it reads back from the sheet. Everything is
// text except the hours column.
type Row struct {
	Title             string
	Description       string
	ResearchScope     string
	RequestType       string
	OrgName           string
	OrgType           string
	SalesName         string
	ResearcherName    string
	WorkHours         float64
	StatusLabel       string
	ConfidentialLabel string
	CreatedAt         string
	CompletedAt       string
	ResultNote        string
}

func confidentialLabel(confidential bool) string {
	if confidential {
		return "保密"
	}
	return "公开"
}

// Build renders the request list into a workbook with a bold header row
// and a fixed column order.
func Build(reqs []request.Request) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, boldStyle)
	}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	for idx, req := range reqs {
		row := idx + 2
		completedAt := ""
		if req.CompletedAt != nil {
			completedAt = req.CompletedAt.Format(timeLayout)
		}
		resultNote := ""
		if req.ResultNote != nil {
			resultNote = *req.ResultNote
		}

		values := []any{
			req.Title,
			req.Description,
			req.ResearchScope,
			req.RequestType,
			req.OrgName,
			req.OrgType,
			req.SalesName,
			req.ResearcherName,
			req.WorkHours,
			request.StatusLabel(req.Status),
			confidentialLabel(req.IsConfidential),
			req.CreatedAt.Format(timeLayout),
			completedAt,
			resultNote,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	return f, nil
}

// Write renders the request list and streams the workbook to w.
func Write(w io.Writer, reqs []request.Request) error {
	f, err := Build(reqs)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// Filename suggests a download name stamped with the given time.
func Filename(now time.Time) string {
	return fmt.Sprintf("需求导出_%s.xlsx", now.Format("20060102_150405"))
}

// Read parses a workbook produced by Write back into rows. Rows shorter
// than the header are padded with empty cells, the way a hand-edited
// sheet comes back.
func Read(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("export: read rows: %w", err)
	}
	if len(cells) < 2 {
		return []Row{}, nil
	}

	out := make([]Row, 0, len(cells)-1)
	for i, line := range cells[1:] {
		for len(line) < len(headers) {
			line = append(line, "")
		}
		hours := 0.0
		if line[8] != "" {
			hours, err = strconv.ParseFloat(line[8], 64)
			if err != nil {
				return nil, fmt.Errorf("export: row %d: bad hours %q: %w", i+2, line[8], err)
			}
		}
		out = append(out, Row{
			Title:             line[0],
			Description:       line[1],
			ResearchScope:     line[2],
			RequestType:       line[3],
			OrgName:           line[4],
			OrgType:           line[5],
			SalesName:         line[6],
			ResearcherName:    line[7],
			WorkHours:         hours,
			StatusLabel:       line[9],
			ConfidentialLabel: line[10],
			CreatedAt:         line[11],
			CompletedAt:       line[12],
			ResultNote:        line[13],
		})
	}
	return out, nil
}
