// Package logger builds the service's slog.Logger and provides typed
// attribute helpers for the notification domain.
//
// Loggers are JSON by default and text in development. Context extractors
// add request-scoped values such as the request id to each record, and an
// optional lumberjack sink mirrors output into a rotating file.
//
//	log := logger.FromConfig(cfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
//	log.InfoContext(ctx, "notification emitted",
//		logger.NotificationID(id),
//		logger.NotificationType("task.assigned"),
//	)
package logger
