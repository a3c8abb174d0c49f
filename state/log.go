package state

import (
	cosmoslog "cosmossdk.io/log"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// treeLogger lets the iavl tree write through the node logger. Tree
// messages are tagged so they can be told apart from ledger output.
type treeLogger struct {
	logger cmtlog.Logger
}

var _ cosmoslog.Logger = treeLogger{}

func newTreeLogger(lg cmtlog.Logger) cosmoslog.Logger {
	return treeLogger{logger: lg.With("component", "iavl")}
}

func (l treeLogger) Info(msg string, keyVals ...any) {
	l.logger.Info(msg, keyVals...)
}

func (l treeLogger) Error(msg string, keyVals ...any) {
	l.logger.Error(msg, keyVals...)
}

func (l treeLogger) Debug(msg string, keyVals ...any) {
	l.logger.Debug(msg, keyVals...)
}

func (l treeLogger) With(keyVals ...any) cosmoslog.Logger {
	return treeLogger{logger: l.logger.With(keyVals...)}
}

func (l treeLogger) Impl() any {
	return l.logger
}
