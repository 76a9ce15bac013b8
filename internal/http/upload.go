package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/svvaap/bookhive/internal/catalog"
	"github.com/svvaap/bookhive/internal/entities"
	"github.com/svvaap/bookhive/internal/remote"
	"github.com/svvaap/bookhive/internal/tasks"
	"github.com/svvaap/bookhive/internal/utils"
)

// PublishController is the authoring surface: creating catalog records and
// attaching their assets. Routes are admin only.
type PublishController struct {
	store      remote.Store
	tasks      *tasks.Client
	stagingDir string
}

func NewPublishController(store remote.Store, taskClient *tasks.Client, stagingDir string) *PublishController {
	return &PublishController{store: store, tasks: taskClient, stagingDir: stagingDir}
}

type createBookRequest struct {
	Title       string  `json:"title" binding:"required"`
	Author      string  `json:"author" binding:"required"`
	Category    string  `json:"category"`
	Language    string  `json:"language"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Visibility  string  `json:"visibility"`
}

// CreateBook pushes a new record under the catalog subtree. The pushed key
// becomes the book id; assets are attached afterwards via UploadAsset.
func (controller *PublishController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and author are required", "invalid_request")
		return
	}
	if req.Price < 0 {
		respondBadRequest(c, "price must not be negative", "invalid_request")
		return
	}

	book := entities.Book{
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Language:    req.Language,
		Description: req.Description,
		Price:       req.Price,
		Visibility:  req.Visibility,
		UploadDate:  time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	id, err := controller.store.Push(c.Request.Context(), catalog.Path, catalog.RecordFromBook(book))
	if err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	book.ID = id
	c.IndentedJSON(http.StatusCreated, gin.H{"book": book})
}

type updateBookRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Category    *string  `json:"category"`
	Language    *string  `json:"language"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Visibility  *string  `json:"visibility"`
}

// fields maps the submitted values to their record keys, skipping what the
// request left out so untouched fields keep their stored value.
func (r updateBookRequest) fields() map[string]any {
	out := make(map[string]any)
	if r.Title != nil {
		out["title"] = *r.Title
	}
	if r.Author != nil {
		out["author"] = *r.Author
	}
	if r.Category != nil {
		out["category"] = *r.Category
	}
	if r.Language != nil {
		out["language"] = *r.Language
	}
	if r.Description != nil {
		out["description"] = *r.Description
	}
	if r.Price != nil {
		out["price"] = *r.Price
	}
	if r.Visibility != nil {
		out["visibility"] = *r.Visibility
	}
	return out
}

// UpdateBook merges the submitted fields into an existing record. Each field
// is written at its own path so asset URLs written by the upload queue are
// never clobbered.
func (controller *PublishController) UpdateBook(c *gin.Context) {
	bookID := c.Param("id")

	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed book update", "invalid_request")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		respondBadRequest(c, "price must not be negative", "invalid_request")
		return
	}
	changes := req.fields()
	if len(changes) == 0 {
		respondBadRequest(c, "no fields to update", "invalid_request")
		return
	}

	recordPath := remote.Join(catalog.Path, bookID)
	snap, err := controller.store.Read(c.Request.Context(), recordPath)
	if err != nil {
		respondInternalError(c, err, "read book")
		return
	}
	if !snap.Exists() {
		respondNotFound(c, "book")
		return
	}

	for field, value := range changes {
		if err := controller.store.Write(c.Request.Context(), remote.Join(recordPath, field), value); err != nil {
			respondInternalError(c, err, "update book")
			return
		}
	}

	respondSuccess(c, "book updated")
}

// DeleteBook removes the record. Asset objects stay in object storage;
// nothing references them once the record is gone.
func (controller *PublishController) DeleteBook(c *gin.Context) {
	bookID := c.Param("id")

	recordPath := remote.Join(catalog.Path, bookID)
	snap, err := controller.store.Read(c.Request.Context(), recordPath)
	if err != nil {
		respondInternalError(c, err, "read book")
		return
	}
	if !snap.Exists() {
		respondNotFound(c, "book")
		return
	}

	if err := controller.store.Delete(c.Request.Context(), recordPath); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	respondSuccess(c, "book deleted")
}

// UploadAsset stages a cover or content file and queues the upload to
// object storage. The queue writes the resulting URL into the record.
func (controller *PublishController) UploadAsset(c *gin.Context) {
	if controller.tasks == nil {
		respondError(c, http.StatusServiceUnavailable, "uploads are not configured", "uploads_disabled")
		return
	}

	bookID := c.Param("id")
	field := c.PostForm("field")
	if field != tasks.AssetFieldCover && field != tasks.AssetFieldFile {
		respondBadRequest(c, "field must be coverImageUrl or fileUrl", "invalid_request")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required", "invalid_request")
		return
	}

	if err := os.MkdirAll(controller.stagingDir, 0o755); err != nil {
		respondInternalError(c, err, "create staging dir")
		return
	}
	ext := utils.FileExtension(utils.SanitizeFilename(file.Filename))
	staged := filepath.Join(controller.stagingDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, staged); err != nil {
		respondInternalError(c, err, "stage upload")
		return
	}

	task := tasks.UploadBookAssetTask{
		BookID:      bookID,
		Field:       field,
		StagingPath: staged,
		ObjectKey:   fmt.Sprintf("books/%s/%s%s", bookID, field, ext),
		ContentType: file.Header.Get("Content-Type"),
	}
	if _, err := controller.tasks.Add(task).Save(); err != nil {
		respondInternalError(c, err, "queue upload")
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Message: "upload queued",
		Data:    gin.H{"book_id": bookID, "field": field},
	})
}
