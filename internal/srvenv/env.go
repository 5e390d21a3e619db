package srvenv

import (
	"context"

	"github.com/gestureconnect/signd/internal/database"
	"github.com/gestureconnect/signd/internal/history"
	"github.com/gestureconnect/signd/internal/notify"
	"github.com/gestureconnect/signd/internal/registry"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	registry   registry.ProvideFn
	notifier   notify.ProvideFn
	transcript history.ProvideFn
}

func (s *SrvEnv) ProvideNotifier() notify.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ProvideRegistry() registry.ProvideFn {
	return s.registry
}

func (s *SrvEnv) ProvideTranscript() history.ProvideFn {
	return s.transcript
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithNotifier(fn notify.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithRegistry(fn registry.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.registry = fn
		return s
	}
}

func WithTranscript(fn history.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.transcript = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
