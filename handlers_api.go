package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// respondError returns an error envelope.
func respondError(c *gin.Context, statusCode int, code, message string, details any) {
	logrus.Errorf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, statusCode, code)

	c.JSON(statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// respondSuccess returns the generic success envelope.
func respondSuccess(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// processVideoHandler runs the whole ingestion pipeline synchronously for
// the source URL in the `url` query parameter.
//
// Responses:
//   - 200 with {status:"success", video_id, post_id} or
//     {status:"failed", message} for pipeline stage failures
//   - 400 when the URL is missing or already being processed
//
// An optional `webhook` query parameter additionally delivers the terminal
// result to that URL once the run finishes.
func (s *AppServer) processVideoHandler(c *gin.Context) {
	sourceURL := c.Query("url")
	if sourceURL == "" {
		respondError(c, http.StatusBadRequest, "MISSING_URL",
			"query parameter 'url' is required", nil)
		return
	}
	webhookURL := c.Query("webhook")

	result, err := s.crawlerService.ProcessVideo(c.Request.Context(), sourceURL)
	if err != nil {
		if errors.Is(err, ErrDuplicateInFlight) {
			c.JSON(http.StatusBadRequest, ProcessResult{
				Status:  "failed",
				Message: "Video is already being processed.",
			})
			return
		}
		respondError(c, http.StatusInternalServerError, "PROCESS_FAILED",
			"video processing failed", err.Error())
		return
	}

	if webhookURL != "" {
		s.webhookSender.SendAsync(webhookURL, sourceURL, result)
	}

	c.JSON(http.StatusOK, result)
}

// announceHandler posts a social-media announcement for a published post.
// Announcer failures are not softened: they surface as a 500.
func (s *AppServer) announceHandler(c *gin.Context) {
	var req AnnounceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid announce request", err.Error())
		return
	}

	if err := s.crawlerService.Announce(c.Request.Context(), &req); err != nil {
		respondError(c, http.StatusInternalServerError, "ANNOUNCE_FAILED",
			"announcement failed", err.Error())
		return
	}

	respondSuccess(c, map[string]any{"post_url": req.PostURL}, "announcement posted")
}

// healthHandler reports service liveness.
func healthHandler(c *gin.Context) {
	respondSuccess(c, map[string]any{
		"status":  "healthy",
		"service": "vidpress-crawler",
	}, "service is up")
}
