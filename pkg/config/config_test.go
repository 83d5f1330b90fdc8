package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, 6, cfg.Timetable.DisplayDays)
	assert.Equal(t, "0 3 * * *", cfg.Timetable.RevalidationCron)
	assert.Nil(t, cfg.Timetable.RevalidationLevels)
	assert.Equal(t, 3, cfg.Reports.WorkerRetries)
	assert.Equal(t, ',', cfg.Reports.CSVSeparator)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "timetable", cfg.Redis.Namespace)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("TIMETABLE_DISPLAY_DAYS", 9)
	v.Set("TIMETABLE_CACHE_TTL", "nonsense")
	v.Set("TIMETABLE_REVALIDATION_LEVELS", " MP2I, ,MPSI ")

	cfg := fromViper(v)
	assert.Equal(t, 6, cfg.Timetable.DisplayDays)
	assert.Equal(t, 15*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, []string{"MP2I", "MPSI"}, cfg.Timetable.RevalidationLevels)
}
