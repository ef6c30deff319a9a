package fetcher

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockAkamai     BlockType = "akamai"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// Challenge pages are small. Larger bodies are real content that may
// mention a captcha widget in passing.
const maxChallengeSize = 64 << 10

var bodyMarkers = []struct {
	block   BlockType
	markers []string
}{
	{BlockCloudflare, []string{"checking your browser", "cf-browser-verification", "cf-challenge"}},
	{BlockAkamai, []string{"access denied", "reference&#32;&#35;", "errors.edgesuite.net"}},
	{BlockCaptcha, []string{"captcha"}},
}

// DetectBlock checks a response for signs of anti-bot protection. Sites
// answer blocked clients with a challenge page, often under a 200 status.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
		if strings.Contains(strings.ToLower(resp.Header.Get("server")), "akamai") {
			return true, BlockAkamai
		}
	}

	if len(body) > maxChallengeSize {
		return false, BlockNone
	}

	lower := strings.ToLower(string(body))
	for _, m := range bodyMarkers {
		for _, marker := range m.markers {
			if strings.Contains(lower, marker) {
				return true, m.block
			}
		}
	}

	// JS-only shell: tiny body that only asks for scripts or redirects.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
