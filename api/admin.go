package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplishare/models"
)

type UserCountResponse struct {
	UserCount int64 `json:"userCount"`
}

type UserDataResponse struct {
	UserData []models.User `json:"userData"`
}

// (GET /api/admin/user-count)
func (impl *ServerImpl) GetUserCount(c *gin.Context) {
	const op = "GetUserCount"
	count, err := impl.admin.UserCount(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, UserCountResponse{UserCount: count})
}

// (GET /api/admin/userData)
func (impl *ServerImpl) GetUserData(c *gin.Context) {
	const op = "GetUserData"
	users, err := impl.admin.Users(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, UserDataResponse{UserData: users})
}

// Pair accepted pictures with accepted listings
// (GET /items/images)
func (impl *ServerImpl) GetAcceptedImages(c *gin.Context) {
	const op = "GetAcceptedImages"
	images, err := impl.admin.AcceptedImages(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, images)
}
