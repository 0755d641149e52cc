// Package app wires the Arvaia Pulse dashboard server together and manages
// its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and ARVAIA_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Start the WebSocket hub
//  4. Build the dataset source and the services around it
//  5. Mount the chi router with its middleware stack
//
// The dataset is read by Start, after the startup health check. A missing or
// unreadable dataset does not stop the server: readiness stays at 503 until
// a reload or an upload succeeds.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns on SIGINT, SIGTERM or cancellation of ctx. Stop drains the
// HTTP server within the configured shutdown timeout, then Close stops the
// hub, releases the insights clients and flushes telemetry.
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
