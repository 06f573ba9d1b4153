package dialect

import (
	"context"

	"go.uber.org/zap"
)

// DebugDriver is a driver that logs all driver operations.
type DebugDriver struct {
	Driver
	log *zap.Logger
}

// Debug wraps a driver and logs every statement with its bound
// parameters at debug level. The wrapper adds no behavior; it exists
// for development and tests.
func Debug(d Driver, log *zap.Logger) Driver {
	return &DebugDriver{Driver: d, log: log.Named("driver")}
}

// Exec logs its arguments and calls the underlying driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.Debug("exec", zap.String("query", query), zap.Any("args", args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Query logs its arguments and calls the underlying driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.Debug("query", zap.String("query", query), zap.Any("args", args))
	return d.Driver.Query(ctx, query, args, v)
}

// Tx starts a logged transaction.
func (d *DebugDriver) Tx(ctx context.Context) (Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Debug("tx started")
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx is a transaction that logs all transaction operations.
type DebugTx struct {
	Tx
	log *zap.Logger
}

// Exec logs its arguments and calls the underlying transaction.
func (d *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	d.log.Debug("tx exec", zap.String("query", query), zap.Any("args", args))
	return d.Tx.Exec(ctx, query, args, v)
}

// Query logs its arguments and calls the underlying transaction.
func (d *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	d.log.Debug("tx query", zap.String("query", query), zap.Any("args", args))
	return d.Tx.Query(ctx, query, args, v)
}

// Commit logs and commits the transaction.
func (d *DebugTx) Commit() error {
	d.log.Debug("tx commit")
	return d.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (d *DebugTx) Rollback() error {
	d.log.Debug("tx rollback")
	return d.Tx.Rollback()
}
