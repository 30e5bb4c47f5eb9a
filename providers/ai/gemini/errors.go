package gemini

import (
	"errors"
	"net/http"

	"github.com/leofalp/chatwidget/internal/utils"
	"github.com/leofalp/chatwidget/providers/ai"
)

// classifyError turns any DoPostSync failure into a *ai.ProviderError.
func classifyError(err error) *ai.ProviderError {
	var httpErr *utils.HTTPError
	if !errors.As(err, &httpErr) {
		if errors.Is(err, utils.ErrDecodeResponse) {
			return ai.NewProviderError(providerName, ai.ErrorKindBadResponse, 0, "undecodable response body", err)
		}
		return ai.NewProviderError(providerName, ai.ErrorKindNetwork, 0, "", err)
	}

	message := errorMessage(httpErr.Body)
	if message == "" {
		message = http.StatusText(httpErr.StatusCode)
	}
	return ai.NewProviderError(providerName, kindForStatus(httpErr.StatusCode), httpErr.StatusCode, message, err)
}

// errorMessage extracts error.message from a Google error envelope. Bodies
// cut short by proxies are repaired before decoding; anything else yields "".
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	env, err := utils.ParseJSONAs[errorEnvelope](string(body))
	if err != nil {
		return ""
	}
	return env.Error.Message
}

func kindForStatus(status int) ai.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ai.ErrorKindAuth
	case status == http.StatusTooManyRequests:
		return ai.ErrorKindQuota
	case status >= 500:
		return ai.ErrorKindServer
	default:
		return ai.ErrorKindInvalidRequest
	}
}
