package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/PageForge/backend/internal/host"
	"github.com/GriffinCanCode/PageForge/backend/internal/importer"
	"github.com/GriffinCanCode/PageForge/backend/internal/resilience"
	"github.com/GriffinCanCode/PageForge/backend/internal/sandbox/script"
	"github.com/GriffinCanCode/PageForge/backend/internal/session"
)

// maxUploadBytes bounds how much of a multipart part is read into
// memory; the importer applies its own, tighter limits afterwards
const maxUploadBytes = 8 << 20

// readUpload pulls one multipart file into memory
func readUpload(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s is required: %w", field, err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// createStatus maps session creation failures onto response codes
func createStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrAtCapacity):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrBadMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// importStatus maps import failures onto response codes. Anything the
// client can fix stays in the 4xx range; upstream trouble does not.
func importStatus(err error) int {
	switch {
	case errors.Is(err, importer.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrNotHTML), errors.Is(err, importer.ErrNotImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrBadStatus):
		return http.StatusBadGateway
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// applyStatus maps patch failures onto response codes. A timed out
// acknowledgment means the target vanished or the frame is gone, which
// is state conflict, not server failure.
func applyStatus(err error) int {
	switch {
	case errors.Is(err, host.ErrNoSelection),
		errors.Is(err, host.ErrNoDocument),
		errors.Is(err, host.ErrApplyTimeout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// truthy reads flag style query parameters
func truthy(value string) bool {
	return value == "1" || value == "true"
}

// consoleLines shapes script console output for JSON responses
func consoleLines(entries []script.LogEntry) []gin.H {
	lines := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, gin.H{"level": e.Level, "message": e.Message})
	}
	return lines
}
