package server

import "github.com/gin-gonic/gin"

// Registrar is a common interface for all HTTP service registrars. Routes
// added to private go through the auth middleware; public ones do not.
type Registrar interface {
	Register(public, private *gin.RouterGroup)
}
