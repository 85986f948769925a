package scheduler

import "time"

// Config controls when each job fires and how much work runs in parallel.
type Config struct {
	// Timezone the cron specs and the reminder window are evaluated in.
	Timezone string
	// Cron specs, standard five-field syntax.
	ReminderSpec    string
	PromoSpec       string
	MaintenanceSpec string
	ExpirySpec      string
	// Workers bounds per-item concurrency inside a job run.
	Workers int
	// LockTTL is how long a trigger lock is held in Redis.
	LockTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timezone:        "Asia/Kolkata",
		ReminderSpec:    "0 * * * *",
		PromoSpec:       "0 9 * * *",
		MaintenanceSpec: "0 6 * * 0",
		ExpirySpec:      "*/15 * * * *",
		Workers:         4,
		LockTTL:         10 * time.Minute,
	}
}
