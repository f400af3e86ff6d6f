package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zepzep/zepzep-backend/pkg/logger"
)

func newBufferedQueryLogger() (gormlogger.Interface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: buf})), buf
}

func statement() (string, int64) {
	return "SELECT * FROM orders", 3
}

func TestQueryLoggerReportsSlowAndFailedStatements(t *testing.T) {
	ql, buf := newBufferedQueryLogger()
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), statement, nil)
	require.Zero(t, buf.Len())

	ql.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	require.Contains(t, buf.String(), "db.query.slow")
	require.Contains(t, buf.String(), "SELECT * FROM orders")

	buf.Reset()
	ql.Trace(ctx, time.Now(), statement, errors.New("deadlock detected"))
	require.Contains(t, buf.String(), "db.query.failed")
	require.Contains(t, buf.String(), "deadlock detected")
}

func TestQueryLoggerIgnoresNotFoundAndSilentMode(t *testing.T) {
	ql, buf := newBufferedQueryLogger()
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len())

	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), statement, errors.New("boom"))
	require.Zero(t, buf.Len())

	require.Equal(t, gormlogger.Discard, newQueryLogger(nil))
}
