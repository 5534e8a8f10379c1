package clients

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// decodeJSON drains and decodes a response body.
func decodeJSON(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}

type errorEnvelope struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// readErrorReason extracts a machine-readable reason from a failure response,
// falling back to a status-code description or a body snippet.
func readErrorReason(resp *http.Response) string {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var envelope errorEnvelope
	if err := json.Unmarshal(snippet, &envelope); err == nil {
		if envelope.Reason != "" {
			return envelope.Reason
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	if text := strings.TrimSpace(string(snippet)); text != "" {
		return text
	}
	return fmt.Sprintf("service returned status %d", resp.StatusCode)
}
