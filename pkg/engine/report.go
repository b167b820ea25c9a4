package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turni/turni/pkg/model"
)

// reportDateLayout 报告中的日期格式（面向运营人员的意大利习惯写法）
const reportDateLayout = "02/01/2006"

// buildMessage 汇总一次生成的结果文本
// 存在未覆盖时段时追加逐行明细：
// "DD/MM/YYYY HH:MM-HH:MM (roles: R1, R2): reason"，
// 同一时段同一原因的多个角色合并成一行
func buildMessage(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "共生成 %d 个班次", len(r.Shifts))

	if len(r.Uncovered) > 0 {
		fmt.Fprintf(&b, "，%d 个时段未覆盖:", len(r.Uncovered))
		for _, line := range uncoveredLines(r.Uncovered) {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}

	return b.String()
}

// uncoveredLines 把未覆盖警告格式化为报告行，按日期与时段排序
func uncoveredLines(uncovered []model.UncoveredSlot) []string {
	type lineKey struct {
		date   string
		start  string
		end    string
		reason string
	}

	grouped := make(map[lineKey][]model.Role)
	for _, u := range uncovered {
		key := lineKey{u.Date, u.StartTime, u.EndTime, u.Reason}
		grouped[key] = append(grouped[key], u.Role)
	}

	keys := make([]lineKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		if keys[i].start != keys[j].start {
			return keys[i].start < keys[j].start
		}
		if keys[i].end != keys[j].end {
			return keys[i].end < keys[j].end
		}
		// 同一时段不同原因按原因字典序，保证输出稳定
		return keys[i].reason < keys[j].reason
	})

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		roles := grouped[k]
		sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

		names := make([]string, 0, len(roles))
		seen := make(map[model.Role]bool)
		for _, r := range roles {
			if !seen[r] {
				seen[r] = true
				names = append(names, string(r))
			}
		}

		lines = append(lines, fmt.Sprintf("%s %s-%s (roles: %s): %s",
			formatReportDate(k.date), k.start, k.end, strings.Join(names, ", "), k.reason))
	}

	return lines
}

// formatReportDate 把 YYYY-MM-DD 转为 DD/MM/YYYY
func formatReportDate(date string) string {
	t, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(reportDateLayout)
}
