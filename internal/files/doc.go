// Package files locates raw input tables on disk.
//
// Discovery lists the CSV and Excel files in a directory and resolves a
// configured input such as data/raw/orders.csv to an existing sibling with
// the same stem (orders.xlsx) when the configured file is absent.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	if resolved, changed := discovery.ResolveInput(paths.OrdersRaw); changed {
//		paths.OrdersRaw = resolved
//	}
package files
