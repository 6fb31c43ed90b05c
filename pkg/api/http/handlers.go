package http

import (
	"errors"
	"net/http"

	"github.com/aescanero/certgate/internal/application/records"
	mysqlstorage "github.com/aescanero/certgate/pkg/adapters/storage/mysql"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// queryFailedMessage is the message of every database failure response
const queryFailedMessage = "Database query failed"

// DataResponse is the body of /api/getalldata
type DataResponse struct {
	Success bool          `json:"success"`
	Data    []records.Row `json:"data"`
}

// SummaryResponse is the body of /api/data-summary
type SummaryResponse struct {
	Success    bool              `json:"success"`
	TotalCount int64             `json:"total_count"`
	TopRMs     []records.RMCount `json:"top_rms"`
	TopMRs     []records.MRCount `json:"top_mrs"`
	TodayMRs   []records.MRCount `json:"today_mrs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

// handleGetAllData returns every certificate record
func (s *Server) handleGetAllData(c *gin.Context) {
	rows, err := s.records.All(c.Request.Context())
	if err != nil {
		s.respondQueryError(c, err)
		return
	}

	if rows == nil {
		rows = []records.Row{}
	}
	c.JSON(http.StatusOK, DataResponse{
		Success: true,
		Data:    rows,
	})
}

// handleDataSummary returns the record count and the RM/MR rankings
func (s *Server) handleDataSummary(c *gin.Context) {
	sum, err := s.records.Summary(c.Request.Context())
	if err != nil {
		s.respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Success:    true,
		TotalCount: sum.TotalCount,
		TopRMs:     nonNil(sum.TopRMs),
		TopMRs:     nonNil(sum.TopMRs),
		TodayMRs:   nonNil(sum.TodayMRs),
	})
}

// respondQueryError logs err and writes the 500 envelope. The driver error
// is passed through unless redaction is enabled.
func (s *Server) respondQueryError(c *gin.Context, err error) {
	requestID := RequestIDFrom(c)
	cause := err
	var qe *records.QueryError
	if errors.As(err, &qe) {
		cause = qe.Err
	}

	s.logger.Error("database query error",
		zap.String("path", c.FullPath()),
		zap.String("request_id", requestID),
		zap.String("kind", string(mysqlstorage.Classify(cause))),
		zap.Error(err))

	var detail any
	if s.redactErrors {
		detail = mysqlstorage.Redact(cause, requestID)
	} else {
		detail = mysqlstorage.Describe(cause)
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: queryFailedMessage,
		Error:   detail,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
