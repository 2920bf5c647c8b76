// Package logger provides structured logging backed by Uber's zap.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Debug,
//		ServiceName: "search-api",
//	})
//
//	log.Info("client ready", nil, map[string]interface{}{
//		"query_url": "http://localhost:8080",
//	})
//
// Every method takes an optional error and any number of field maps; later
// maps override earlier keys.
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // Provides *LoggerClient and logger.Logger
//		fx.Supply(logger.Config{Level: logger.Info}),
//	)
//
// The module flushes buffered entries on shutdown.
package logger
