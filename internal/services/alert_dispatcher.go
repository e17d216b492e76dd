package services

import (
	"context"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// StockChecker runs one stock check for one item.
type StockChecker interface {
	CheckStockAndNotify(ctx context.Context, productItemID string) error
}

// AsyncStockAlerts fans stock checks out to goroutines. Every item gets its
// own attempt; failures and panics are logged and never reach the caller.
type AsyncStockAlerts struct {
	checker StockChecker
	workers int
	log     *zap.Logger
	wg      conc.WaitGroup
}

// NewAsyncStockAlerts creates a dispatcher running at most workers checks
// at a time per dispatch.
func NewAsyncStockAlerts(checker StockChecker, workers int, log *zap.Logger) *AsyncStockAlerts {
	if workers < 1 {
		workers = 1
	}
	return &AsyncStockAlerts{checker: checker, workers: workers, log: log}
}

// Dispatch implements StockAlertDispatcher. It returns immediately; the
// checks run detached from ctx cancellation.
func (a *AsyncStockAlerts) Dispatch(ctx context.Context, productItemIDs []string) {
	if len(productItemIDs) == 0 {
		return
	}
	ids := append([]string(nil), productItemIDs...)
	ctx = context.WithoutCancel(ctx)

	a.wg.Go(func() {
		p := pool.New().WithMaxGoroutines(a.workers)
		for _, id := range ids {
			p.Go(func() { a.checkOne(ctx, id) })
		}
		p.Wait()
	})
}

// Wait blocks until every dispatched check has finished.
func (a *AsyncStockAlerts) Wait() {
	a.wg.Wait()
}

func (a *AsyncStockAlerts) checkOne(ctx context.Context, id string) {
	var pc panics.Catcher
	var err error
	pc.Try(func() { err = a.checker.CheckStockAndNotify(ctx, id) })

	if r := pc.Recovered(); r != nil {
		a.log.Error("Stock check panicked",
			zap.String("product_item_id", id),
			zap.Any("panic", r.Value),
			zap.ByteString("stack", r.Stack),
		)
		return
	}
	switch {
	case err == nil:
	case IsStockAlertNoop(err):
		a.log.Info("Stock check skipped", zap.String("product_item_id", id), zap.String("reason", err.Error()))
	default:
		a.log.Warn("Stock check failed", zap.String("product_item_id", id), zap.Error(err))
	}
}
