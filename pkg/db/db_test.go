package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	d, err := Dialector("mysql", "user:pass@tcp(localhost:3306)/pricing")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = Dialector("postgres", "host=localhost dbname=pricing")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("sqlserver", "x")
	require.Error(t, err)
}

func TestGormLoggerLogMode(t *testing.T) {
	l := NewGormLogger(false, 0)
	assert.True(t, l.LogMode(logger.Info).(*GormLogger).enabled)
	assert.False(t, l.LogMode(logger.Warn).(*GormLogger).enabled)
	assert.False(t, l.enabled)
}
