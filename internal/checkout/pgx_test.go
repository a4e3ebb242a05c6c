package checkout

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogRollback(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := &PGStore{log: zap.New(core)}

	s.logRollback(nil)
	s.logRollback(pgx.ErrTxClosed)
	assert.Zero(t, logs.Len(), "rollback after commit is a no-op")

	s.logRollback(errors.New("connection reset"))
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "transaction rollback failed", logs.All()[0].Message)
}
