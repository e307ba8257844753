package export

import (
	"bytes"
	"testing"
	"time"

	"demandflow/request"
)

func sampleRequests() []request.Request {
	note := "已出具对比报告"
	completed := time.Date(2026, time.March, 10, 17, 30, 0, 0, time.UTC)
	return []request.Request{
		{
			ID: 1, Title: "消费行业龙头对比", Description: "对比三家龙头近三年营收",
			RequestType: "行业研究", ResearchScope: "消费",
			OrgName: "华信基金", OrgType: "公募",
			SalesName: "张销售", ResearcherName: "王研究",
			WorkHours: 6.5, Status: request.StatusCompleted, IsConfidential: true,
			CreatedAt:   time.Date(2026, time.March, 2, 9, 15, 0, 0, time.UTC),
			CompletedAt: &completed, ResultNote: &note,
		},
		{
			ID: 2, Title: "调研纪要整理", Description: "上周调研的纪要",
			RequestType: "其他(纪要)", ResearchScope: "医药",
			OrgName: "长青资管", OrgType: "私募",
			SalesName: "李销售", ResearcherName: "王研究",
			Status:    request.StatusPending,
			CreatedAt: time.Date(2026, time.March, 5, 14, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	reqs := sampleRequests()

	var buf bytes.Buffer
	if err := Write(&buf, reqs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != len(reqs) {
		t.Fatalf("rows = %d, want %d", len(rows), len(reqs))
	}

	for i, req := range reqs {
		row := rows[i]
		if row.Title != req.Title {
			t.Errorf("row %d title = %q, want %q", i, row.Title, req.Title)
		}
		if row.OrgName != req.OrgName {
			t.Errorf("row %d org = %q, want %q", i, row.OrgName, req.OrgName)
		}
		if row.WorkHours != req.WorkHours {
			t.Errorf("row %d hours = %v, want %v", i, row.WorkHours, req.WorkHours)
		}
	}
}

func TestWriteLabels(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRequests()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rows, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if rows[0].StatusLabel != "已完成" || rows[1].StatusLabel != "待处理" {
		t.Errorf("status labels = %q, %q", rows[0].StatusLabel, rows[1].StatusLabel)
	}
	if rows[0].ConfidentialLabel != "保密" || rows[1].ConfidentialLabel != "公开" {
		t.Errorf("confidential labels = %q, %q", rows[0].ConfidentialLabel, rows[1].ConfidentialLabel)
	}
	if rows[0].CompletedAt != "2026-03-10 17:30" {
		t.Errorf("completed at = %q", rows[0].CompletedAt)
	}
	if rows[1].CompletedAt != "" {
		t.Errorf("pending request should have empty completion time, got %q", rows[1].CompletedAt)
	}
	if rows[0].ResultNote != "已出具对比报告" {
		t.Errorf("result note = %q", rows[0].ResultNote)
	}
}

func TestReadEmptyWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rows, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, time.March, 15, 9, 5, 30, 0, time.UTC)
	if got := Filename(now); got != "需求导出_20260315_090530.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}
