package output

import (
	"strings"

	"github.com/ka2n/csswrap/api/config"
	"github.com/samber/lo"
)

// Filter drops the messages cfg asks to ignore.
func Filter(out Output, cfg config.Config) Output {
	msgs := lo.Reject(out.Response.Messages, func(m Message, _ int) bool {
		switch {
		case cfg.IgnoreWarnings && m.Type == TypeWarning:
			return true
		case cfg.VendorExtension == config.SeverityIgnore && isVendorExtension(m):
			return true
		case cfg.IgnoreFalseImageDataURLMessages && isFalseImageDataURL(m):
			return true
		case !isLocalRef(m.Ref) && cfg.IsIgnoredURI(m.Ref):
			return true
		}
		return false
	})
	if len(msgs) == len(out.Response.Messages) {
		return out
	}
	return out.withMessages(msgs)
}

func isVendorExtension(m Message) bool {
	return strings.Contains(strings.ToLower(m.Title), "vendor extension")
}

// The validator rejects valid data: URLs of images as parse errors.
func isFalseImageDataURL(m Message) bool {
	return m.Type == TypeError &&
		(strings.Contains(m.Context, "data:image/") || strings.Contains(m.Title, "data:image/"))
}
