package logger

import "go.uber.org/zap"

// BadgerAdapter routes badger's printf-style logging into zap.
// It satisfies badger.Logger without importing badger here.
type BadgerAdapter struct {
	s *zap.SugaredLogger
}

// NewBadgerAdapter wraps l, tagging entries with component=badger.
func NewBadgerAdapter(l *zap.Logger) *BadgerAdapter {
	return &BadgerAdapter{s: l.With(zap.String("component", "badger")).Sugar()}
}

func (a *BadgerAdapter) Errorf(msg string, args ...any)   { a.s.Errorf(msg, args...) }
func (a *BadgerAdapter) Warningf(msg string, args ...any) { a.s.Warnf(msg, args...) }
func (a *BadgerAdapter) Infof(msg string, args ...any)    { a.s.Infof(msg, args...) }

// Debugf is mapped to zap debug; badger is chatty at this level.
func (a *BadgerAdapter) Debugf(msg string, args ...any) { a.s.Debugf(msg, args...) }
