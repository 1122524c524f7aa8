// Package app provides application initialization and lifecycle management
// for the orderpulse pipeline.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML and ORDERPULSE_* environment
//  2. Resolve paths and create the output directories
//  3. Initialize logging and OpenTelemetry
//  4. Register the clean, analytics and summary steps with a manager
//
// # Usage
//
//	a, err := app.NewApplication(app.Options{ConfigFile: "configs/orderpulse.yaml"})
//	if err != nil {
//		return err
//	}
//	defer a.Stop(context.Background())
//	_, err = a.Run(ctx, "all")
package app
