package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	TokenName   = "token"
	TokenHeader = "X-Auth-Token"
)

//extractToken return token from
//1. query parameter
//2. header
func extractToken(r *http.Request) string {
	token := r.URL.Query().Get(TokenName)
	if token == "" {
		token = r.Header.Get(TokenHeader)
	}

	return token
}

//TokenAuth checks that provided token equals originalToken. Empty originalToken disables the check
func TokenAuth(main gin.HandlerFunc, originalToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if originalToken != "" && extractToken(c.Request) != originalToken {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Wrong token"})
			return
		}

		main(c)
	}
}
