package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/savalagikadappa/infosys/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidRange = errors.New("导出区间无效：结束日期早于开始日期")
	ErrExportRangeTooLong = errors.New("导出区间不能超过 366 天")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const exportMaxDays = 366

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAllocations 导出 [from, to] 区间的考试安排
	ExportAllocations(ctx context.Context, from, to string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	resolver identityResolver
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, resolver: identityResolver{repo: repo}, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAllocations 考试安排导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "考试安排"
//   - 标题行 + 表头：日期 | 考官 | 候选人 | 课程 | 状态
//   - Sheet "考官负载"：日期 × 考官的场次汇总

func (s *exportService) ExportAllocations(ctx context.Context, from, to string) (*bytes.Buffer, string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, "", err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, "", err
	}
	if end.Before(start) {
		return nil, "", ErrExportInvalidRange
	}
	if end.Sub(start).Hours()/24 > exportMaxDays {
		return nil, "", ErrExportRangeTooLong
	}

	list, err := s.repo.Allocation.ListRange(ctx, start, end)
	if err != nil {
		s.logger.Error("查询考试安排失败", zap.Error(err))
		return nil, "", storeErr(err)
	}
	rows, err := s.resolver.allocations(ctx, list)
	if err != nil {
		return nil, "", storeErr(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考试安排"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "C", 30)
	f.SetColWidth(sheetName, "D", "D", 28)
	f.SetColWidth(sheetName, "E", "E", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("考试安排 %s ~ %s", FormatDate(start), FormatDate(end)))
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)

	// 表头
	for i, h := range []string{"日期", "考官", "候选人", "课程", "状态"} {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}

	// 数据行
	load := make(map[string]map[string]int) // date → examiner → n
	var examiners []string
	seenExaminer := make(map[string]bool)
	row := 3
	for _, r := range rows {
		f.SetCellValue(sheetName, cell("A", row), r.Date)
		f.SetCellValue(sheetName, cell("B", row), displayOr(r.ExaminerEmail, r.ExaminerID))
		f.SetCellValue(sheetName, cell("C", row), displayOr(r.CandidateEmail, r.CandidateID))
		f.SetCellValue(sheetName, cell("D", row), displayOr(r.SessionTitle, r.SessionID))
		f.SetCellValue(sheetName, cell("E", row), statusLabel(r.Status))
		row++

		examiner := displayOr(r.ExaminerEmail, r.ExaminerID)
		if load[r.Date] == nil {
			load[r.Date] = make(map[string]int)
		}
		load[r.Date][examiner]++
		if !seenExaminer[examiner] {
			seenExaminer[examiner] = true
			examiners = append(examiners, examiner)
		}
	}

	// 考官负载汇总
	summary := "考官负载"
	f.NewSheet(summary)
	f.SetCellValue(summary, "A1", "日期")
	for i, e := range examiners {
		f.SetCellValue(summary, cell(colName(i+1), 1), e)
	}
	summaryRow := 2
	for _, r := range rows {
		counts, ok := load[r.Date]
		if !ok {
			continue
		}
		f.SetCellValue(summary, cell("A", summaryRow), r.Date)
		for i, e := range examiners {
			f.SetCellValue(summary, cell(colName(i+1), summaryRow), counts[e])
		}
		delete(load, r.Date)
		summaryRow++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考试安排_%s_%s.xlsx", FormatDate(start), FormatDate(end))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func displayOr(display, fallback string) string {
	if display != "" {
		return display
	}
	return fallback
}

func statusLabel(status string) string {
	switch status {
	case "allocated":
		return "待考"
	case "completed":
		return "已完成"
	}
	return status
}
