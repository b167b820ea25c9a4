package engine

import (
	"testing"
)

func TestSplitWindow_ShortWindow(t *testing.T) {
	// 7 小时以内的窗口不切分
	segs := SplitWindow(480, 900) // 08:00-15:00
	if len(segs) != 1 {
		t.Fatalf("班段数 = %d, expected 1", len(segs))
	}
	if segs[0].Start != 480 || segs[0].End != 900 {
		t.Errorf("班段 = %v, expected [480,900]", segs[0])
	}
}

func TestSplitWindow_EvenSplit(t *testing.T) {
	tests := []struct {
		name  string
		start int
		end   int
		want  []Segment
	}{
		{"8小时对半", 480, 960, []Segment{{480, 720}, {720, 960}}},       // 08:00-16:00
		{"12小时对半", 480, 1200, []Segment{{480, 840}, {840, 1200}}},    // 08:00-20:00
		{"9小时切点落在半点", 480, 1020, []Segment{{480, 750}, {750, 1020}}}, // 08:00-17:00 -> 12:30
		{"跨午夜8小时", 1320, 1800, []Segment{{1320, 1560}, {1560, 1800}}}, // 22:00-06:00
		// 08:15-22:15：就近对齐会把切点推到 15:30 使首段 435 分钟，
		// 半点网格上没有可行切点，只能贴 7 小时上限在 15:15 切
		{"14小时离网起点贴上限", 495, 1335, []Segment{{495, 915}, {915, 1335}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := SplitWindow(tt.start, tt.end)
			if len(segs) != len(tt.want) {
				t.Fatalf("班段数 = %d, expected %d: %v", len(segs), len(tt.want), segs)
			}
			for i, w := range tt.want {
				if segs[i] != w {
					t.Errorf("班段[%d] = %v, expected %v", i, segs[i], w)
				}
			}
		})
	}
}

func TestSplitWindow_ThreeSegments(t *testing.T) {
	// 16 小时窗口切成三段，内部切点对齐到半小时
	segs := SplitWindow(360, 1320) // 06:00-22:00
	if len(segs) != 3 {
		t.Fatalf("班段数 = %d, expected 3: %v", len(segs), segs)
	}
	want := []Segment{{360, 690}, {690, 990}, {990, 1320}}
	for i, w := range want {
		if segs[i] != w {
			t.Errorf("班段[%d] = %v, expected %v", i, segs[i], w)
		}
	}
}

func TestSplitWindow_OffGridBounds(t *testing.T) {
	// 首末端点保持窗口原值，对齐只作用于内部切点
	segs := SplitWindow(490, 1010) // 08:10-16:50
	if len(segs) != 2 {
		t.Fatalf("班段数 = %d, expected 2: %v", len(segs), segs)
	}
	if segs[0].Start != 490 || segs[1].End != 1010 {
		t.Errorf("首末端点被改动: %v", segs)
	}
	if segs[0].End%snapStep != 0 {
		t.Errorf("内部切点 %d 未对齐到半小时", segs[0].End)
	}
}

func TestSplitWindow_Invariants(t *testing.T) {
	// 任意窗口（含离网起点）：班段首尾相接、无缝隙、
	// 每段不超 7 小时、拼回原窗口
	for _, start := range []int{480, 490, 495, 505} {
		for total := 15; total <= 960; total += 15 {
			segs := SplitWindow(start, start+total)

			if segs[0].Start != start {
				t.Fatalf("起点 %d 总长 %d: 首段开始 = %d, expected %d", start, total, segs[0].Start, start)
			}
			if segs[len(segs)-1].End != start+total {
				t.Fatalf("起点 %d 总长 %d: 末段结束 = %d, expected %d", start, total, segs[len(segs)-1].End, start+total)
			}
			for i, s := range segs {
				if s.Minutes() > MaxSegmentMinutes {
					t.Fatalf("起点 %d 总长 %d: 班段 %v 超过 7 小时", start, total, s)
				}
				if s.Minutes() <= 0 {
					t.Fatalf("起点 %d 总长 %d: 班段 %v 时长非正", start, total, s)
				}
				if i > 0 && segs[i-1].End != s.Start {
					t.Fatalf("起点 %d 总长 %d: 班段不相接: %v", start, total, segs)
				}
			}
		}
	}
}

func TestSegmentsForSlot(t *testing.T) {
	slot := &Slot{Date: "2026-01-05", Start: 480, End: 1200}

	// 值班不切分，整窗一个班段
	segs := segmentsForSlot(slot, false)
	if len(segs) != 1 || segs[0].Start != 480 || segs[0].End != 1200 {
		t.Errorf("未启用切分时应整窗返回: %v", segs)
	}

	// 驻场切分
	segs = segmentsForSlot(slot, true)
	if len(segs) != 2 {
		t.Errorf("12 小时窗口应切成 2 段: %v", segs)
	}
}
