package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Runner запускает фоновые горутины с перехватом panic.
// Побочные задачи (уведомления, письма) не должны ронять процесс.
type Runner struct {
	log *logrus.Entry
}

// NewRunner создаёт Runner с заданным логгером.
func NewRunner(log *logrus.Entry) *Runner {
	return &Runner{log: log}
}

// Go запускает fn в горутине. Panic логируется со стеком и гасится.
func (r *Runner) Go(fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.WithField("panic", rec).Errorf("Паника в горутине:\n%s", debug.Stack())
			}
		}()
		fn()
	}()
}

// GoWithContext запускает fn с контекстом, отвязанным от запроса.
// Используется для задач, которые должны пережить завершение HTTP запроса.
func (r *Runner) GoWithContext(parent context.Context, fn func(context.Context)) {
	ctx := context.WithoutCancel(parent)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.WithField("panic", rec).Errorf("Паника в горутине:\n%s", debug.Stack())
			}
		}()
		fn(ctx)
	}()
}
