// Package logging builds the service logger on a zap core.
package logging

import (
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
)

// New returns a structured logger for the service. Development mode switches
// zap to human-readable console output.
func New(development bool) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if development {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
