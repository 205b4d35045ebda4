package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// LineSignature verifies the X-Line-Signature header: base64 of the
// HMAC-SHA256 of the raw body under the channel secret. Requests that fail
// verification never reach the state machine.
func LineSignature(channelSecret string) gin.HandlerFunc {
	secret := []byte(channelSecret)
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		mac := hmac.New(sha256.New, secret)
		mac.Write(body)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(c.GetHeader("X-Line-Signature"))) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "bad signature"})
			return
		}
		c.Next()
	}
}
