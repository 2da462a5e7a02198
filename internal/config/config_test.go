package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV("5043175452, 100, 200")
	require.NoError(t, err)
	assert.Equal(t, []int64{5043175452, 100, 200}, ids)

	ids, err = parseInt64CSV("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseInt64CSV("100,abc")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		AdminIDs:                []int64{1},
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		BackupInterval:          24 * time.Hour,
		DataFile:                "data.json",
		BackupDir:               "backups",
		AuditLogFile:            "admin_log.txt",
	}
	assert.NoError(t, valid.Validate())

	noAdmins := valid
	noAdmins.AdminIDs = nil
	assert.Error(t, noAdmins.Validate())

	badInflight := valid
	badInflight.BotMaxInflight = 0
	assert.Error(t, badInflight.Validate())

	badInterval := valid
	badInterval.BackupInterval = 0
	assert.Error(t, badInterval.Validate())

	noFile := valid
	noFile.DataFile = ""
	assert.Error(t, noFile.Validate())
}

func TestLocationFallback(t *testing.T) {
	cfg := Config{AppTimezone: "Europe/Moscow"}
	assert.NotNil(t, cfg.Location())

	broken := Config{AppTimezone: "Нет/Такого"}
	loc := broken.Location()
	require.NotNil(t, loc)
	// Запасной вариант — фиксированный UTC+3
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 3*60*60, offset)
}
