package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// NOOPLogger discards everything. It is the default for servers built
// without an explicit logger, tests included.
var NOOPLogger = zap.NewNop().Sugar()

// New returns a development logger for local runs and a JSON production
// logger everywhere else.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch appEnv {
	case "local", "development":
		l, err = zap.NewDevelopment()
	default:
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Sugar().With("service", "contactbook"), nil
}
