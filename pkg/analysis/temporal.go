package analysis

import "time"

// temporalContext snapshots when the analysis ran. Business hours are
// 09:00-17:59 Monday through Friday in the process-local timezone.
func temporalContext(now time.Time) TemporalContext {
	hour := now.Hour()
	day := int(now.Weekday())

	context := "off_hours"
	if hour >= 9 && hour <= 17 && day >= 1 && day <= 5 {
		context = "business_hours"
	}

	return TemporalContext{
		HourOfDay:   hour,
		DayOfWeek:   day,
		TimeContext: context,
		Timestamp:   now,
	}
}
