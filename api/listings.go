package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	internalS3 "supplishare/adapters/s3"
	"supplishare/apperror"
	"supplishare/services/listing"
)

type UploadedData struct {
	ListingName  string   `json:"listingname"`
	Description  string   `json:"description"`
	Zip          string   `json:"zip"`
	ItemCategory string   `json:"itemcategory"`
	Email        string   `json:"email"`
	URLs         []string `json:"urls"`
}

// ListingResult 是建立刊登交易的結果，成功與失敗使用相同的結構
type ListingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*listing.Listing
}

type UploadImageResponse struct {
	Message       string        `json:"message"`
	UploadedData  UploadedData  `json:"uploadedData"`
	ListingResult ListingResult `json:"listingResult"`
}

type UploadImageErrorResponse struct {
	ErrorResponse
	ListingResult ListingResult `json:"listingResult"`
}

type DeleteListingRequest struct {
	ListingID FlexibleID `json:"listingid" binding:"required"`
}

// FlexibleID 同時接受 JSON 數字與數字字串，例如 5 與 "5"
type FlexibleID uint

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if raw == "null" {
		return nil
	}
	v, err := strconv.ParseUint(strings.Trim(raw, `"`), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s", raw)
	}
	*id = FlexibleID(v)
	return nil
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Create a listing with images
// (POST /uploadimage)
func (impl *ServerImpl) PostUploadImage(c *gin.Context) {
	const op = "PostUploadImage"
	fail := func(err error) {
		status := statusOf(err)
		logError(c, op, status, err)
		c.JSON(status, UploadImageErrorResponse{
			ErrorResponse: ErrorResponse{Error: apperror.Kind(err), Message: apperror.Message(err)},
			ListingResult: ListingResult{Success: false, Message: apperror.Message(err)},
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(apperror.Validation("Title, description, zip, itemcategory, and email are required."))
		return
	}
	req := listing.CreateListingRequest{
		Email:        c.PostForm("email"),
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Zipcode:      c.PostForm("zip"),
		ItemCategory: c.PostForm("itemcategory"),
	}
	for _, header := range form.File["image"] {
		data, err := readUploadFile(header, impl.config.Upload.MaxBytes)
		if err != nil {
			fail(err)
			return
		}
		req.Files = append(req.Files, listing.UploadFile{Filename: header.Filename, Data: data})
	}

	result, err := impl.listings.CreateListing(c.Request.Context(), req)
	if err != nil {
		fail(err)
		return
	}
	c.JSON(http.StatusOK, UploadImageResponse{
		Message: "Title and description received successfully. Files uploaded successfully.",
		UploadedData: UploadedData{
			ListingName:  result.ListingName,
			Description:  result.Description,
			Zip:          result.Zipcode,
			ItemCategory: result.ItemCategory,
			Email:        req.Email,
			URLs:         result.ImageURLs,
		},
		ListingResult: ListingResult{
			Success: true,
			Message: "Successfully uploaded listing details and associated images.",
			Listing: result,
		},
	})
}

func readUploadFile(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, apperror.Validation(fmt.Sprintf("File %q exceeds the limit of %s.", header.Filename, internalS3.FormatBytes(maxBytes)))
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("fail to open upload file, err=%w", err)
	}
	defer file.Close()
	data, err := internalS3.ReadAllLimited(file, maxBytes)
	if internalS3.IsReachLimit(err) {
		return nil, apperror.Validation(fmt.Sprintf("File %q exceeds the limit of %s.", header.Filename, internalS3.FormatBytes(maxBytes)))
	}
	if err != nil {
		return nil, fmt.Errorf("fail to read upload file, err=%w", err)
	}
	return data, nil
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperror.Validation(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return uint(id), nil
}

// List all listings with their images
// (GET /api/listings)
func (impl *ServerImpl) GetListings(c *gin.Context) {
	const op = "GetListings"
	views, err := impl.listings.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// List image urls of a listing
// (GET /api/listings/postimages/{listingid})
func (impl *ServerImpl) GetListingImages(c *gin.Context) {
	const op = "GetListingImages"
	listingID, err := parseID(c.Param("listingid"), "listingid")
	if err != nil {
		writeError(c, op, err)
		return
	}
	urls, err := impl.listings.Images(c.Request.Context(), listingID)
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, urls)
}

// List listings in one of the allowed orders
// (GET /api/listings/sort/{field}/{direction})
func (impl *ServerImpl) GetSortedListings(c *gin.Context) {
	const op = "GetSortedListings"
	views, err := impl.listings.Sorted(c.Request.Context(), c.Param("field"), c.Param("direction"))
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Get the owner of a listing
// (GET /listing/{listingID}/userID)
func (impl *ServerImpl) GetListingOwner(c *gin.Context) {
	const op = "GetListingOwner"
	listingID, err := parseID(c.Param("listingID"), "listingID")
	if err != nil {
		writeError(c, op, err)
		return
	}
	userID, err := impl.listings.Owner(c.Request.Context(), listingID)
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, userID)
}

// Delete a listing and its image records
// (DELETE /api/listings/delete)
func (impl *ServerImpl) DeleteListing(c *gin.Context) {
	const op = "DeleteListing"
	var body DeleteListingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, op, errors.Join(apperror.Validation("listingid is required."), err))
		return
	}
	if _, err := impl.listings.Delete(c.Request.Context(), uint(body.ListingID)); err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}
