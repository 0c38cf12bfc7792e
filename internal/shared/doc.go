// Package shared holds code used across packages that belongs to no single
// layer. Its testutil subpackage provides spreadsheet fixtures (WriteWorkbook,
// WriteCSV and the three-team WriteKPIInputs set) and LogCapture, an slog
// handler that records log output for assertions.
package shared
