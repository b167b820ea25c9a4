package model

import (
	"testing"
)

func TestDateRange_Days(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int
	}{
		{"单日", "2026-01-05", "2026-01-05", 1},
		{"一周", "2026-01-05", "2026-01-11", 7},
		{"跨月", "2026-01-30", "2026-02-02", 4},
		{"结束早于开始", "2026-01-10", "2026-01-05", 0},
		{"非法日期", "not-a-date", "2026-01-05", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := (DateRange{StartDate: tt.start, EndDate: tt.end}).Days()
			if len(days) != tt.expected {
				t.Errorf("Days() 长度 = %d, expected %d", len(days), tt.expected)
			}
		})
	}
}

func TestDateRange_Days_Order(t *testing.T) {
	days := (DateRange{StartDate: "2026-01-05", EndDate: "2026-01-07"}).Days()
	want := []string{"2026-01-05", "2026-01-06", "2026-01-07"}
	for i, d := range want {
		if days[i] != d {
			t.Errorf("Days()[%d] = %s, expected %s", i, days[i], d)
		}
	}
}

func TestDateRange_Contains(t *testing.T) {
	dr := DateRange{StartDate: "2026-01-05", EndDate: "2026-01-11"}
	if !dr.Contains("2026-01-05") || !dr.Contains("2026-01-11") {
		t.Error("闭区间端点应包含在内")
	}
	if dr.Contains("2026-01-04") || dr.Contains("2026-01-12") {
		t.Error("区间外日期不应包含")
	}
}

func TestWeekdayOf(t *testing.T) {
	tests := []struct {
		date     string
		expected int
	}{
		{"2026-01-05", 0}, // 周一
		{"2026-01-09", 4}, // 周五
		{"2026-01-10", 5}, // 周六
		{"2026-01-11", 6}, // 周日
		{"bad", -1},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := WeekdayOf(tt.date); got != tt.expected {
				t.Errorf("WeekdayOf(%s) = %d, expected %d", tt.date, got, tt.expected)
			}
		})
	}
}

func TestPreviousNextDate(t *testing.T) {
	if got := PreviousDate("2026-01-01"); got != "2025-12-31" {
		t.Errorf("PreviousDate = %s, expected 2025-12-31", got)
	}
	if got := NextDate("2026-02-28"); got != "2026-03-01" {
		t.Errorf("NextDate = %s, expected 2026-03-01", got)
	}
}

func TestDayIndex(t *testing.T) {
	a := DayIndex("2026-01-05")
	b := DayIndex("2026-01-06")
	if b-a != 1 {
		t.Errorf("相邻日期的序数差 = %d, expected 1", b-a)
	}
}
