package config

import (
	"fmt"
	"github.com/spf13/viper"
)

// EngineConfig carries the tunables of the evaluation and scheduling engine.
type EngineConfig struct {
	MinCallScore         float64 `mapstructure:"min_call_score"`
	CallWindowStartHour  int     `mapstructure:"call_window_start_hour"`
	CallWindowEndHour    int     `mapstructure:"call_window_end_hour"`
	SlotDurationMinutes  int     `mapstructure:"slot_duration_minutes"`
	SlotBufferMinutes    int     `mapstructure:"slot_buffer_minutes"`
	MaxCallRetries       int     `mapstructure:"max_call_retries"`
	MaxReminderRetries   int     `mapstructure:"max_reminder_retries"`
	MaxReschedules       int     `mapstructure:"max_reschedules"`
	DispatchCronSpec     string  `mapstructure:"dispatch_cron_spec"`
	ReminderScanCronSpec string  `mapstructure:"reminder_scan_cron_spec"`
	DispatchWorkers      int     `mapstructure:"dispatch_workers"`
	SimulateInterviews   bool    `mapstructure:"simulate_interviews"`
}

func setEngineDefaults() {
	viper.SetDefault("engine.min_call_score", 0)
	viper.SetDefault("engine.call_window_start_hour", 9)
	viper.SetDefault("engine.call_window_end_hour", 18)
	viper.SetDefault("engine.slot_duration_minutes", 30)
	viper.SetDefault("engine.slot_buffer_minutes", 15)
	viper.SetDefault("engine.max_call_retries", 3)
	viper.SetDefault("engine.max_reminder_retries", 3)
	viper.SetDefault("engine.max_reschedules", 2)
	viper.SetDefault("engine.dispatch_cron_spec", "* * * * *")
	viper.SetDefault("engine.reminder_scan_cron_spec", "*/5 * * * *")
	viper.SetDefault("engine.dispatch_workers", 4)
	viper.SetDefault("engine.simulate_interviews", true)
}

func (config EngineConfig) validate() error {

	if config.CallWindowStartHour < 0 || config.CallWindowEndHour > 24 ||
		config.CallWindowStartHour >= config.CallWindowEndHour {
		return fmt.Errorf("invalid call window: %d-%d", config.CallWindowStartHour, config.CallWindowEndHour)
	}

	if config.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}

	if config.DispatchWorkers <= 0 {
		return fmt.Errorf("dispatch workers must be positive")
	}

	return nil
}
