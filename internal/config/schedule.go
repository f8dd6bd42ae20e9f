package config

import "github.com/robfig/cron/v3"

// DefaultCron fires at second 0, minute 0 of every hour.
const DefaultCron = "0 0 * * * *"

// CronParser accepts six-field (seconds-first) specs and descriptors such as @hourly.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron spec with CronParser.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return CronParser.Parse(spec)
}
