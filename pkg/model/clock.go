// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// ParseClock 解析 HH:MM 为自午夜起的分钟数
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("无效的时间格式: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("无效的小时: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的分钟: %q", s)
	}
	return h*60 + m, nil
}

// FormatClock 将分钟数格式化为 HH:MM，跨日的值先归一化到当日
func FormatClock(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SpanMinutes 计算时间窗口的时长（分钟）
// 结束时刻小于等于开始时刻表示跨越午夜，统一在此处加 24 小时；
// 引擎内所有时长运算都必须经过这一个入口
func SpanMinutes(start, end int) int {
	if end <= start {
		end += MinutesPerDay
	}
	return end - start
}

// SpanHours 计算时间窗口的时长（小时）
func SpanHours(start, end int) float64 {
	return float64(SpanMinutes(start, end)) / 60.0
}

// ClockSpanHours 从 HH:MM 字符串计算时长（小时），格式非法返回 0
func ClockSpanHours(startClock, endClock string) float64 {
	start, err1 := ParseClock(startClock)
	end, err2 := ParseClock(endClock)
	if err1 != nil || err2 != nil {
		return 0
	}
	return SpanHours(start, end)
}
