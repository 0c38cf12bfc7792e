// Package validation checks the input spreadsheets before the pipeline
// parses them: each file must exist, be a readable regular file and have a
// supported extension (.xlsx, .xlsm or .csv).
package validation
