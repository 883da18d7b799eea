// Package app wires the yeogiro server together and runs it.
//
// # Initialization Flow
//
// NewApplication builds everything without touching the network:
//
//	1. Load configuration (defaults, YAML file, YEOGIRO_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Create the four stores and register them with the lifecycle manager
//	4. Create the websocket hub and the services
//	5. Build the middleware chain and mount the route groups
//
// Start then opens the stores in their fixed order (map, document, path,
// emergency). A store that fails to open aborts startup before any listener
// is bound, so the process never serves with a partial store set.
//
// # Usage
//
//	application, err := app.NewApplication(nil)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run stops on SIGINT, SIGTERM, context cancellation or a server error:
//
//	- In-flight requests are drained
//	- Websocket subscribers are disconnected
//	- Stores are closed in reverse order, every one attempted
//	- Telemetry is flushed
//
// The app does not call os.Exit; main decides the exit code.
package app
