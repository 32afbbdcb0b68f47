package server

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// bindRequest decodes a JSON body into dst, accepting both a bare payload and
// the callable-style `{"data": {...}}` wrapper. Anything that fails to decode
// into the typed request is rejected at the boundary.
func bindRequest(c *gin.Context, dst any) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ErrInvalidRequest
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrInvalidRequest
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && isJSONObject(wrapper.Data) {
		body = wrapper.Data
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
