package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// LoadLocation загружает часовой пояс; пустое имя или "UTC" дают UTC.
// "Local" это часовой пояс машины.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "UTC":
		return time.UTC, nil
	case "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// TodayIn возвращает часы "сегодня" для календаря в loc
func TodayIn(loc *time.Location, now func() time.Time) func() string {
	if now == nil {
		now = time.Now
	}
	return func() string {
		return now().In(loc).Format(DateLayout)
	}
}

// ValidDate проверяет формат YYYY-MM-DD
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// FormatDateForDisplay "2024-01-02" -> "Tue, 02 Jan"
func FormatDateForDisplay(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Mon, 02 Jan")
}

// GetTimezoneInfo строка о текущем времени в поясе loc
func GetTimezoneInfo(loc *time.Location, now time.Time) string {
	local := now.In(loc)
	name, offset := local.Zone()
	return fmt.Sprintf("🕐 %s %s (UTC%+d)", local.Format("15:04"), name, offset/3600)
}
