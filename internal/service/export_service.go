package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"learning-circle/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportMeetingReport 导出单次聚会的签到与报告情况（仅组织者）
	ExportMeetingReport(ctx context.Context, meetID, organizerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportMeetingReport — 导出聚会报告为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式（单 Sheet "聚会报告"）：
//   - 第 1 行：学习圈 — 聚会标题
//   - 第 2-4 行：时间 / 地点 / 汇总报告
//   - 第 6 行起：参与者明细

var exportHeaders = []string{"姓名", "MUID", "已签到", "签到时间", "已提交报告", "审核通过", "报告内容", "报告链接"}

func (s *exportService) ExportMeetingReport(ctx context.Context, meetID, organizerID string) (*bytes.Buffer, string, error) {
	meeting, err := loadMeeting(ctx, s.repo, s.logger, meetID)
	if err != nil {
		return nil, "", err
	}
	if meeting.CreatedBy != organizerID {
		return nil, "", ErrMeetingNotOrganizer
	}

	attendees, err := s.repo.Attendee.ListByMeet(ctx, meetID)
	if err != nil {
		s.logger.Error("查询参与者失败", zap.String("meet_id", meetID), zap.Error(err))
		return nil, "", err
	}

	circleTitle := meeting.CircleID
	if meeting.Circle != nil {
		circleTitle = meeting.Circle.Title
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "聚会报告"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "B", 20)
	f.SetColWidth(sheetName, "C", "F", 12)
	f.SetColWidth(sheetName, "D", "D", 22)
	f.SetColWidth(sheetName, "G", "H", 40)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题与聚会信息
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", circleTitle, meeting.Title))
	f.MergeCell(sheetName, "A1", colName(len(exportHeaders)-1)+"1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	f.SetCellValue(sheetName, "A2", "时间")
	f.SetCellValue(sheetName, "B2", formatTime(meeting.MeetTime))
	f.SetCellValue(sheetName, "A3", "地点")
	f.SetCellValue(sheetName, "B3", meeting.MeetPlace)
	f.SetCellValue(sheetName, "A4", "汇总报告")
	if meeting.ReportText != nil {
		f.SetCellValue(sheetName, "B4", *meeting.ReportText)
	} else {
		f.SetCellValue(sheetName, "B4", "-")
	}

	// 表头
	row := 6
	for i, h := range exportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(exportHeaders)-1), row), headerStyle)

	// 数据行
	row++
	for i := range attendees {
		a := &attendees[i]
		name, muid := a.UserID, "-"
		if a.User != nil {
			name, muid = a.User.FullName, a.User.Muid
		}
		joinedAt := "-"
		if a.JoinedAt != nil {
			joinedAt = formatTime(*a.JoinedAt)
		}
		values := []interface{}{
			name,
			muid,
			yesNo(a.IsJoined),
			joinedAt,
			yesNo(a.IsReportSubmitted),
			yesNo(a.IsLcApproved),
			derefOr(a.ReportText, "-"),
			derefOr(a.ReportLink, "-"),
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("聚会报告_%s_%s.xlsx", meeting.Title, meeting.MeetTime.UTC().Format("20060102"))
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

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
