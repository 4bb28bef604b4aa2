package main

// HTTP API request/response types.

// ProcessResult is the terminal outcome of one pipeline run.
type ProcessResult struct {
	Status   string   `json:"status"`
	VideoID  string   `json:"video_id,omitempty"`
	PostID   int      `json:"post_id,omitempty"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// AnnounceRequest asks for a social-media announcement of a published post.
// Thumbnail is either a local file path or an http(s) URL.
type AnnounceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PostURL     string `json:"post_url" binding:"required"`
	Thumbnail   string `json:"thumbnail" binding:"required"`
}

// ErrorResponse is the error envelope for malformed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse is the generic success envelope for non-pipeline
// endpoints.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}
