package engine

import (
	"math"

	"github.com/turni/turni/pkg/model"
)

// MaxSegmentMinutes 单个班段的时长上限（7 小时）
const MaxSegmentMinutes = 7 * 60

// snapStep 班段内部切点对齐到半小时
const snapStep = 30

// Segment 覆盖窗口切出的一个班段
// Start/End 为自当日午夜的分钟数，跨午夜时超过 1440
type Segment struct {
	Start int
	End   int
}

// StartClock 返回班段开始时刻 HH:MM
func (s Segment) StartClock() string {
	return model.FormatClock(s.Start)
}

// EndClock 返回班段结束时刻 HH:MM
func (s Segment) EndClock() string {
	return model.FormatClock(s.End)
}

// Minutes 返回班段时长（分钟）
func (s Segment) Minutes() int {
	return s.End - s.Start
}

// SplitWindow 把覆盖窗口切成若干不超过 7 小时的班段
//
// 段数取 ceil(时长/7h)，切点取均分点就近对齐到半小时；
// 首末端点保持窗口原值不动，对齐只作用于内部切点。
// 对齐不得让任何一段超过 7 小时：切点被夹在
// [end-剩余段容量, cur+7h] 区间内，区间里没有半点网格时
// 放弃对齐贴上限切（如 08:15 起的 14 小时窗口）。
// 对齐产生的不足 30 分钟尾段并入前一段。
// 班段首尾相接、无缝隙无重叠，拼回去正好是原窗口
func SplitWindow(start, end int) []Segment {
	total := end - start
	if total <= MaxSegmentMinutes {
		return []Segment{{Start: start, End: end}}
	}

	n := (total + MaxSegmentMinutes - 1) / MaxSegmentMinutes
	ideal := float64(total) / float64(n)

	segments := make([]Segment, 0, n)
	cur := start
	for i := 1; i < n; i++ {
		raw := float64(start) + float64(i)*ideal
		cut := int(math.Round(raw/snapStep)) * snapStep

		// hi 之上本段超 7 小时，lo 之下剩余段装不下
		hi := cur + MaxSegmentMinutes
		lo := end - (n-i)*MaxSegmentMinutes
		if cut > hi {
			cut -= snapStep
		}
		if cut < lo {
			cut += snapStep
		}
		if cut > hi || cut < lo {
			cut = hi
		}

		// 对齐不能让切点越过相邻边界
		if cut <= cur {
			cut = cur + snapStep
		}
		if cut >= end {
			break
		}
		// 尾段不足半小时时并入前一段
		if end-cut < snapStep {
			break
		}

		segments = append(segments, Segment{Start: cur, End: cut})
		cur = cut
	}
	segments = append(segments, Segment{Start: cur, End: end})

	return segments
}

// segmentsForSlot 根据是否启用切分返回窗口的班段序列
// 值班（reperibilità）不切分，整窗作为一个班段
func segmentsForSlot(slot *Slot, segmentation bool) []Segment {
	if !segmentation {
		return []Segment{{Start: slot.Start, End: slot.End}}
	}
	return SplitWindow(slot.Start, slot.End)
}
