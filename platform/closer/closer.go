package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type closeFn struct {
	name string
	fn   func(ctx context.Context) error
}

type closer struct {
	mu     sync.Mutex
	once   sync.Once
	funcs  []closeFn
	logger Logger
}

var global = &closer{logger: noopLogger{}}

// SetLogger sets the logger used while closing resources.
func SetLogger(l Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.logger = l
}

// Add registers an unnamed close function.
func Add(fn func(ctx context.Context) error) {
	AddNamed("resource", fn)
}

// AddNamed registers a close function. Functions run in reverse registration order.
func AddNamed(name string, fn func(ctx context.Context) error) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.funcs = append(global.funcs, closeFn{name: name, fn: fn})
}

// CloseAll runs every registered function once and joins their errors.
func CloseAll(ctx context.Context) error {
	var err error
	global.once.Do(func() {
		err = global.closeAll(ctx)
	})
	return err
}

func (c *closer) closeAll(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.funcs
	c.funcs = nil
	log := c.logger
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		f := funcs[i]
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", f.name, ctx.Err()))
			continue
		}
		if err := f.fn(ctx); err != nil {
			log.Error(ctx, "failed to close", zap.String("name", f.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", f.name, err))
			continue
		}
		log.Info(ctx, "closed", zap.String("name", f.name))
	}

	return errors.Join(errs...)
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...zap.Field)  {}
func (noopLogger) Error(context.Context, string, ...zap.Field) {}
