// Package app wires the KPI server together: configuration, logging,
// telemetry, the websocket hub, the pipeline and query services, the HTTP
// router and the optional regeneration schedule.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM and then shuts down the HTTP server, the
// scheduler, the hub and the telemetry providers in that order. Initialization
// errors are returned to the caller; the package never calls os.Exit.
package app
