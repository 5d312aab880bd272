// Package format renders amounts, dates and counters the way the receivables
// UI shows them (ru-RU grouping, Belarusian roubles).
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for missing or non-finite values.
const Placeholder = "—"

// CurrencySuffix follows every formatted amount.
const CurrencySuffix = " Бел.руб."

var ru = message.NewPrinter(language.Russian)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Number groups v into thousands without decimals.
func Number(v float64) string {
	if !finite(v) {
		return Placeholder
	}
	return ru.Sprintf("%.0f", v)
}

// Currency is Number followed by the currency suffix.
func Currency(v float64) string {
	if !finite(v) {
		return Placeholder
	}
	return Number(v) + CurrencySuffix
}

// CompactCurrency abbreviates large amounts ("1.5 млн", "12 тыс").
func CompactCurrency(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1f млн", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0f тыс", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}

// Percent renders v (already 0..100) with one decimal.
func Percent(v float64) string {
	if !finite(v) {
		return Placeholder
	}
	return fmt.Sprintf("%.1f%%", v)
}

// NormalizeAPIPercent converts a 0..1 share into 0..100. The API sends both.
func NormalizeAPIPercent(v float64) float64 {
	if !finite(v) {
		return math.NaN()
	}
	if v > 0 && v <= 1 {
		return v * 100
	}
	return v
}

// APIPercent is Percent of a normalised API value.
func APIPercent(v float64) string { return Percent(NormalizeAPIPercent(v)) }

// ParseDate accepts RFC 3339 timestamps and bare dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders s as dd.mm.yyyy in the timestamp's own offset.
func Date(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return Placeholder
	}
	return t.Format("02.01.2006")
}

// Days renders an average day count ("12.5 дн.").
func Days(d float64) string {
	if !finite(d) || d <= 0 {
		return Placeholder
	}
	return fmt.Sprintf("%.1f дн.", d)
}

// plural picks the Russian form for n: one (1, 21), few (2-4, 22-24) or many.
func plural(n int, one, few, many string) string {
	last, lastTwo := n%10, n%100
	switch {
	case last == 1 && lastTwo != 11:
		return one
	case last >= 2 && last <= 4 && (lastTwo < 12 || lastTwo > 14):
		return few
	}
	return many
}

// InvoiceCount renders "1 счёт", "3 счёта", "5 счетов".
func InvoiceCount(n int) string {
	if n <= 0 {
		return "Нет счетов"
	}
	return fmt.Sprintf("%d %s", n, plural(n, "счёт", "счёта", "счетов"))
}

// OldestDebtDays renders the age of the oldest debt.
func OldestDebtDays(n int) string {
	if n <= 0 {
		return "Без просрочки"
	}
	return fmt.Sprintf("%d %s", n, plural(n, "день", "дня", "дней"))
}

var monthNames = [...]string{"Янв", "Фев", "Мар", "Апр", "Май", "Июн", "Июл", "Авг", "Сен", "Окт", "Ноя", "Дек"}

// PeriodLabel turns "2025-03" into "Мар 2025".
func PeriodLabel(period string) string {
	if period == "" {
		return Placeholder
	}
	year, month, _ := strings.Cut(period, "-")
	var m int
	if _, err := fmt.Sscanf(month, "%d", &m); err == nil && m >= 1 && m <= 12 {
		month = monthNames[m-1]
	}
	return month + " " + year
}

// DaysUntil is the number of calendar days from now to due; negative when overdue.
func DaysUntil(due, now time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(d.Sub(n).Hours() / 24))
}

// IsOverdue reports whether due is before today.
func IsOverdue(due, now time.Time) bool { return DaysUntil(due, now) < 0 }

// DueLabel renders a days-until-due value.
func DueLabel(days int) string {
	switch {
	case days > 0:
		return fmt.Sprintf("%d дн. до срока", days)
	case days == 0:
		return "Сегодня"
	}
	return fmt.Sprintf("%d дн. просрочки", -days)
}

// DueDateLabel is DueLabel for a due date string.
func DueDateLabel(due string, now time.Time) string {
	t, ok := ParseDate(due)
	if !ok {
		return Placeholder
	}
	return DueLabel(DaysUntil(t, now))
}
