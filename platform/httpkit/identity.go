package httpkit

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// Identity is the authenticated dashboard operator behind a request.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole checks if the operator has a specific role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsAuthenticated returns true if AuthRequired accepted the request.
func (i Identity) IsAuthenticated() bool {
	return i.Subject != ""
}

// GetIdentity extracts the operator identity set by AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	subject, _ := c.Get(ContextOperatorKey)
	roles, _ := c.Get(ContextRolesKey)

	id := Identity{}
	id.Subject, _ = subject.(string)
	id.Roles, _ = roles.([]string)
	return id
}
