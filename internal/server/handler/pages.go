package handler

import (
	_ "embed"

	"github.com/gin-gonic/gin"
)

// The result pages only signal login outcome to the opener window; the
// opener reads the event and closes the popup.
var (
	//go:embed templates/login-success.html
	loginSuccessPage []byte

	//go:embed templates/login-failure.html
	loginFailurePage []byte
)

func renderSuccess(c *gin.Context) {
	c.Data(200, "text/html; charset=utf-8", loginSuccessPage)
}

func renderFailure(c *gin.Context, status int) {
	c.Data(status, "text/html; charset=utf-8", loginFailurePage)
}
