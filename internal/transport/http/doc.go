// Package http contains the REST handlers of the KPI server.
//
// Handlers depend on the KPIQueries and PipelineRunner interfaces rather than
// on concrete services, and report failures through the RFC 7807 error
// handler of the errors package. A table that has not been generated yet is
// answered with 404 TABLE_NOT_FOUND and a hint to run the pipeline.
package http
