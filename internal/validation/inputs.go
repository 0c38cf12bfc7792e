package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

// SupportedExtensions are the input formats the loader can read
var SupportedExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Input is a required input file and what it holds
type Input struct {
	Label string
	Path  string
}

// InputValidator checks the input files before any of them is parsed
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a new input validator
func NewInputValidator(logger *slog.Logger) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputValidator{logger: logger}
}

// ValidateInputs checks every input and reports all problems in one
// MISSING_INPUT error, so a run never fails on the second file after
// spending time parsing the first.
func (v *InputValidator) ValidateInputs(inputs ...Input) error {
	var problems []string
	files := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if err := v.ValidateFile(in.Path); err != nil {
			problems = append(problems, fmt.Sprintf("%s %v", in.Label, err))
			files = append(files, in.Path)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return apperrors.NewAppError(apperrors.ErrTypeMissingInput,
		"input files are not usable: "+strings.Join(problems, "; "), nil).
		WithContext("files", files)
}

// ValidateFile checks that path is a readable regular file in a supported format
func (v *InputValidator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("has no path configured")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return fmt.Errorf("%q does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%q cannot be read: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory", slog.String("path", path))
		return fmt.Errorf("%q is a directory, not a file", path)
	}

	// Excel lock files share the name of the open workbook
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Input is a temporary Excel file", slog.String("file", path))
		return fmt.Errorf("%q is a temporary Excel lock file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supported(ext) {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%q has unsupported format %q (want one of %s)", path, ext, strings.Join(SupportedExtensions, ", "))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%q is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

func supported(ext string) bool {
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
