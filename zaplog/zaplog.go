// Package zaplog adapts a zap logger to the session.Logger interface.
package zaplog

import (
	"github.com/shopglow/go-session"
	"go.uber.org/zap"
)

// Adapter forwards session log calls to a zap sugared logger. The key-value
// argument convention maps directly onto zap's -w methods.
type Adapter struct {
	sugar *zap.SugaredLogger
}

var _ session.Logger = &Adapter{}

// New wraps logger. Pass zap.NewNop() to silence a component.
func New(logger *zap.Logger) *Adapter {
	return &Adapter{sugar: logger.Sugar()}
}

func (a *Adapter) Debug(message string, args ...any) {
	a.sugar.Debugw(message, args...)
}

func (a *Adapter) Info(message string, args ...any) {
	a.sugar.Infow(message, args...)
}

func (a *Adapter) Warn(message string, args ...any) {
	a.sugar.Warnw(message, args...)
}

func (a *Adapter) Error(message string, args ...any) {
	a.sugar.Errorw(message, args...)
}
