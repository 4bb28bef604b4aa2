package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MCP tool argument types.

// ProcessVideoArgs are the arguments of the process_video tool.
type ProcessVideoArgs struct {
	URL string `json:"url" jsonschema:"source video page URL to ingest and publish"`
}

// PostAnnouncementArgs are the arguments of the post_announcement tool.
type PostAnnouncementArgs struct {
	Title       string `json:"title" jsonschema:"title of the published post"`
	Description string `json:"description,omitempty" jsonschema:"post description, truncated in the announcement"`
	PostURL     string `json:"post_url" jsonschema:"public URL of the published post"`
	Thumbnail   string `json:"thumbnail" jsonschema:"thumbnail image: local path or http(s) URL"`
}

// InitMCPServer builds the MCP server with the crawler tools registered.
func InitMCPServer(appServer *AppServer) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "vidpress-crawler",
			Version: "1.0.0",
		},
		nil,
	)

	registerTools(server, appServer)

	logrus.Info("MCP server initialized")

	return server
}

func registerTools(server *mcp.Server, appServer *AppServer) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "process_video",
			Description: "Ingest a source video URL: extract, normalize, upload to the CDN and publish a post",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args ProcessVideoArgs) (*mcp.CallToolResult, any, error) {
			if args.URL == "" {
				return toolError("url is required"), nil, nil
			}

			result, err := appServer.crawlerService.ProcessVideo(ctx, args.URL)
			if err != nil {
				if errors.Is(err, ErrDuplicateInFlight) {
					return toolError("Video is already being processed."), nil, nil
				}
				return toolError(err.Error()), nil, nil
			}

			return toolJSON(result)
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "post_announcement",
			Description: "Post a social-media announcement linking to a published post",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args PostAnnouncementArgs) (*mcp.CallToolResult, any, error) {
			err := appServer.crawlerService.Announce(ctx, &AnnounceRequest{
				Title:       args.Title,
				Description: args.Description,
				PostURL:     args.PostURL,
				Thumbnail:   args.Thumbnail,
			})
			if err != nil {
				return toolError(err.Error()), nil, nil
			}

			return toolText(fmt.Sprintf("announcement posted for %s", args.PostURL)), nil, nil
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "check_health",
			Description: "Report service liveness",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
			return toolText("vidpress-crawler is up"), nil, nil
		},
	)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(err.Error()), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
