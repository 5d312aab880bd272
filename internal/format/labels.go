package format

// Aging bucket parameters accepted by the API.
const (
	BucketCurrent = "current"
	Bucket1to30   = "1_30"
	Bucket31to60  = "31_60"
	Bucket61to90  = "61_90"
	Bucket91Plus  = "91_PLUS"
)

var bucketLabels = map[string]string{
	"Current": "Срок оплаты не наступил",
	"current": "Срок оплаты не наступил",
	"1-30":    "1-30 дней просрочки",
	"1_30":    "1-30 дней просрочки",
	"31-60":   "31-60 дней просрочки",
	"31_60":   "31-60 дней просрочки",
	"61-90":   "61-90 дней просрочки",
	"61_90":   "61-90 дней просрочки",
	"91+":     "более 91 дня просрочки",
	"91_PLUS": "более 91 дня просрочки",
}

// AgingBucketLabel renders a bucket key; unknown keys pass through.
func AgingBucketLabel(bucket string) string {
	if l, ok := bucketLabels[bucket]; ok {
		return l
	}
	return bucket
}

var bucketParams = map[string]string{
	"1-30 дней просрочки":     Bucket1to30,
	"31-60 дней просрочки":    Bucket31to60,
	"61-90 дней просрочки":    Bucket61to90,
	"более 91 дня просрочки":  Bucket91Plus,
	"Срок оплаты не наступил": BucketCurrent,
	"Current":                 BucketCurrent,
	"current":                 BucketCurrent,
	"1-30 дней":               Bucket1to30,
	"31-60 дней":              Bucket31to60,
	"61-90 дней":              Bucket61to90,
	"91+ дней":                Bucket91Plus,
	"1-30":                    Bucket1to30,
	"31-60":                   Bucket31to60,
	"61-90":                   Bucket61to90,
	"91+":                     Bucket91Plus,
	"1_30":                    Bucket1to30,
	"31_60":                   Bucket31to60,
	"61_90":                   Bucket61to90,
	"91_PLUS":                 Bucket91Plus,
}

// AgingBucketParam maps a bucket key or label to its API parameter.
func AgingBucketParam(bucket string) string {
	if p, ok := bucketParams[bucket]; ok {
		return p
	}
	return bucket
}

func lookup(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

var statusLabels = map[string]string{
	"PAID":       "Оплачено",
	"OVERDUE":    "Просрочено",
	"CURRENT":    "В срок",
	"PARTIAL":    "Частично оплачено",
	"trial":      "Досудебный",
	"collection": "Взыскание",
	"open":       "Открыт",
	"pre-trial":  "Предсудебный",
}

// StatusLabel renders an invoice or case status.
func StatusLabel(status string) string { return lookup(statusLabels, status, status) }

var statusClasses = map[string]string{
	"PAID":    "status-paid",
	"OVERDUE": "status-overdue",
	"CURRENT": "status-current",
	"PARTIAL": "status-partial",
}

// StatusClass is the CSS class of an invoice status.
func StatusClass(status string) string { return lookup(statusClasses, status, "status-default") }

var debtWorkLabels = map[string]string{
	"CALL":  "Прозвон",
	"CLAIM": "Претензия",
	"COURT": "Суд",
}

// DebtWorkLabel renders a debt-work stage.
func DebtWorkLabel(status string) string { return lookup(debtWorkLabels, status, status) }

var categoryLabels = map[string]string{
	"NOT_DUE":  "Срок не наступил",
	"NOTIFY":   "Оповестить",
	"CLAIM":    "Претензия",
	"COURT":    "Суд",
	"BAD_DEBT": "Безнадёжный",
}

var categoryClasses = map[string]string{
	"NOT_DUE":  "category-not-due",
	"NOTIFY":   "category-notify",
	"CLAIM":    "category-claim",
	"COURT":    "category-court",
	"BAD_DEBT": "category-bad-debt",
}

var categoryRecommendations = map[string]string{
	"NOT_DUE":  "Срок оплаты ещё не наступил",
	"NOTIFY":   "Оповестить дебитора (звонок, e-mail)",
	"CLAIM":    "Направить претензию дебитору",
	"COURT":    "Направить заявление в суд (только после претензии!)",
	"BAD_DEBT": "Признание безнадёжным долгом и списание (более 3 лет)",
}

// OverdueCategoryLabel renders an overdue category; unknown or empty gives Placeholder.
func OverdueCategoryLabel(category string) string {
	return lookup(categoryLabels, category, Placeholder)
}

// OverdueCategoryClass is the CSS class of an overdue category.
func OverdueCategoryClass(category string) string { return lookup(categoryClasses, category, "") }

// OverdueCategoryRecommendation is the next collections step for a category.
func OverdueCategoryRecommendation(category string) string {
	return lookup(categoryRecommendations, category, "")
}

// DaysUntilDueClass classifies a days-until-due value.
func DaysUntilDueClass(days int) string {
	switch {
	case days > 7:
		return "days-ok"
	case days > 0:
		return "days-warning"
	case days == 0:
		return "days-today"
	}
	return "days-overdue"
}

// DaysAgeBadgeClass classifies a debt age in days.
func DaysAgeBadgeClass(days int) string {
	switch {
	case days > 90:
		return "days-critical"
	case days > 60:
		return "days-high"
	case days > 30:
		return "days-medium"
	}
	return "days-low"
}
