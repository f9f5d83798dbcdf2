package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supplishare/apperror"
	"supplishare/services/item"
)

type ItemIDResponse struct {
	ItemID uint `json:"itemId"`
}

type ImageCountResponse struct {
	ImageCount int64 `json:"imageCount"`
}

// List legacy items
// (GET /items)
func (impl *ServerImpl) GetItems(c *gin.Context) {
	const op = "GetItems"
	items, err := impl.items.List(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create a legacy item
// (POST /items)
func (impl *ServerImpl) PostItem(c *gin.Context) {
	const op = "PostItem"
	var body item.CreateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, op, errors.Join(apperror.Validation("Invalid item body."), err))
		return
	}
	created, err := impl.items.Create(c.Request.Context(), body)
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List legacy items in one of the allowed orders
// (GET /items/sort/{field}/{direction})
func (impl *ServerImpl) GetSortedItems(c *gin.Context) {
	const op = "GetSortedItems"
	items, err := impl.items.ListSorted(c.Request.Context(), c.Param("field"), c.Param("direction"))
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// List items of a user
// (GET /user-items/{userId})
func (impl *ServerImpl) GetUserItems(c *gin.Context) {
	const op = "GetUserItems"
	userID, err := parseID(c.Param("userId"), "userId")
	if err != nil {
		writeError(c, op, err)
		return
	}
	items, err := impl.items.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Delete legacy items by type
// (DELETE /deletePost/{itemType})
func (impl *ServerImpl) DeletePost(c *gin.Context) {
	const op = "DeletePost"
	itemType := c.Param("itemType")
	deleted, err := impl.items.DeleteByType(c.Request.Context(), itemType)
	if err != nil {
		writeError(c, op, err)
		return
	}
	if deleted == 0 {
		writeErrorBody(c, http.StatusNotFound, "not_found", "No item found with the specified itemType")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Item deleted successfully"})
}

// Delete a legacy item by id
// (DELETE /deletePostById/{itemid})
func (impl *ServerImpl) DeletePostByID(c *gin.Context) {
	const op = "DeletePostByID"
	deleted, err := impl.items.DeleteByID(c.Request.Context(), c.Param("itemid"))
	if err != nil {
		writeError(c, op, err)
		return
	}
	if deleted == 0 {
		writeErrorBody(c, http.StatusNotFound, "not_found", "No item found with the specified itemId")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Item deleted successfully"})
}

// Get the first item id of a type
// (GET /getItemId/{itemType})
func (impl *ServerImpl) GetItemID(c *gin.Context) {
	const op = "GetItemID"
	itemID, err := impl.items.IDByType(c.Request.Context(), c.Param("itemType"))
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, ItemIDResponse{ItemID: itemID})
}

// Count legacy items with pictures
// (GET /imageCount)
func (impl *ServerImpl) GetImageCount(c *gin.Context) {
	const op = "GetImageCount"
	count, err := impl.items.CountWithPictures(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, ImageCountResponse{ImageCount: count})
}
