// Package services sits between the HTTP handlers and the KPI pipeline.
//
// PipelineService owns regeneration: concurrent triggers share one run through
// a singleflight group and stage progress is pushed to a WebSocketHub.
// KPIService answers read queries from the persisted CSV tables, so the API
// always serves the output of the last successful run.
//
// # Usage
//
//	runner := services.NewPipelineService(cfg, hub, logger)
//	result, shared := runner.Run(ctx)
//
//	queries := services.NewKPIService(cfg.GetPaths(), logger)
//	profile, err := queries.TeamProfile(ctx, "Audax Italiano")
//
// Read results never contain NaN: undefined numbers are encoded as JSON null.
package services
