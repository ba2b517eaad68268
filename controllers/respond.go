package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/middleware"
	"github.com/princinho/toursbackend/models"
	"github.com/princinho/toursbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func success(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func list[T any](c *gin.Context, key string, items []T, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(items),
		"total":   total,
		"data":    gin.H{key: items},
	})
}

// pathID reads an ObjectID path parameter. A malformed value is reported to
// the error boundary and ok is false.
func pathID(c *gin.Context, name string) (bson.ObjectID, bool) {
	id, err := utils.ParseObjectID("_id", c.Param(name))
	if err != nil {
		c.Error(err)
		return bson.ObjectID{}, false
	}
	return id, true
}

// bindJSON decodes and validates the body into obj, reporting failures.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.Error(err)
		return false
	}
	return true
}

// currentUser is only called behind Protect.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c.Request.Context())
	if !ok {
		c.Error(apperrors.Unauthorized("You are not logged in! Please log in to get access."))
	}
	return user, ok
}
