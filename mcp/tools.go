package mcp

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/ka2n/csswrap/api"
	"github.com/ka2n/csswrap/api/config"
	"github.com/ka2n/csswrap/api/output"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

var validate = validator.New()

func InitTools() []server.ServerTool {
	tools := []server.ServerTool{}

	tools = append(tools, newServerTool(ValidateCSS(api.NewWrapper)))

	return tools
}

// ValidateCSS returns the validate_css tool. newWrapper builds the wrapper
// for each call's configuration.
func ValidateCSS(newWrapper func(config.Config) *api.Wrapper) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"validate_css",
			mcp.WithDescription("Validate the CSS of a web page or stylesheet with the W3C CSS validator. Linked stylesheets are checked too; resources that cannot be fetched are reported as errors."),
			mcp.WithString("url", mcp.Required(), mcp.Description("URL of the HTML page or stylesheet")),
			mcp.WithString("content", mcp.Description("Validate this HTML or CSS instead of fetching the URL; the URL is still used to resolve relative links")),
			mcp.WithString("vendor_extension", mcp.Description("How to report vendor extensions: warn, error or ignore")),
			mcp.WithBoolean("ignore_warnings", mcp.Description("Drop warnings from the report")),
			mcp.WithBoolean("ignore_false_image_data_url_messages", mcp.Description("Drop known false errors about image data URLs")),
			mcp.WithArray("ignore_domains", mcp.Description("Drop messages about resources on these domains"), mcp.Items(map[string]any{"type": "string"})),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				URL                             string   `mapstructure:"url" validate:"required,url"`
				Content                         string   `mapstructure:"content"`
				VendorExtension                 string   `mapstructure:"vendor_extension" validate:"omitempty,oneof=warn error ignore"`
				IgnoreWarnings                  bool     `mapstructure:"ignore_warnings"`
				IgnoreFalseImageDataURLMessages bool     `mapstructure:"ignore_false_image_data_url_messages"`
				IgnoreDomains                   []string `mapstructure:"ignore_domains"`
			}
			var args ToolArguments
			if err := mapstructure.Decode(req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := validate.StructCtx(ctx, args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			cfg, err := config.New(config.Config{
				URL:                             args.URL,
				Content:                         args.Content,
				VendorExtension:                 config.Severity(args.VendorExtension),
				IgnoreWarnings:                  args.IgnoreWarnings,
				IgnoreFalseImageDataURLMessages: args.IgnoreFalseImageDataURLMessages,
				IgnoreDomains:                   args.IgnoreDomains,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			out, err := newWrapper(cfg).Validate(ctx, cfg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			type Report struct {
				Valid    bool          `json:"valid"`
				Errors   int           `json:"errors"`
				Warnings int           `json:"warnings"`
				Output   output.Output `json:"output"`
			}

			b, err := json.Marshal(Report{
				Valid:    out.IsValid(),
				Errors:   out.ErrorCount(),
				Warnings: out.WarningCount(),
				Output:   out,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return mcp.NewToolResultText(string(b)), nil
		}
}
