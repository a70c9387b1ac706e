package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"github.com/polarais/haru-sub000/internal/model"
	"github.com/polarais/haru-sub000/internal/repository"
	"github.com/polarais/haru-sub000/internal/service"
	"github.com/polarais/haru-sub000/internal/storage"
)

// EntryHandler encapsulates all HTTP handlers for the application: diary
// entry CRUD, photo uploads, the AI reflection flow, and the health check.
// Each operation exists in a Fiber and a Gin flavor; both are thin shells
// over the service and translate Result errors into status codes.
type EntryHandler struct {
	Service       *service.JournalService
	HealthHandler *HealthHandler
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(svc *service.JournalService, healthHandler *HealthHandler) *EntryHandler {
	return &EntryHandler{Service: svc, HealthHandler: healthHandler}
}

// statusFor maps a Result error string onto an HTTP status. Unknown errors
// are backend failures passed through from storage.
func statusFor(errMsg string) int {
	switch errMsg {
	case "":
		return http.StatusOK
	case repository.ErrMsgUnauthenticated:
		return http.StatusUnauthorized
	case repository.ErrMsgNotFound:
		return http.StatusNotFound
	case repository.ErrMsgDailyLimit:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

type createEntryResponse struct {
	Data *model.DiaryEntry `json:"data"`
	// PhotoErrors reports photo attachments that failed after the entry was
	// saved. The entry itself is persisted regardless.
	PhotoErrors []string `json:"photo_errors,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type reflectRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

// --- Fiber handlers ---

// @Summary List entries
// @Description Returns all non-deleted entries for the authenticated user, most recently created first.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Result[[]model.DiaryEntry]
// @Failure 401 {object} errorResponse
// @Router /entries [get]
func (h *EntryHandler) ListEntriesFiber(c *fiber.Ctx) error {
	res := h.Service.ListEntries(c.UserContext())
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Get entry by id
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} model.Result[*model.DiaryEntry]
// @Failure 404 {object} errorResponse
// @Router /entries/{id} [get]
func (h *EntryHandler) GetEntryFiber(c *fiber.Ctx) error {
	res := h.Service.GetEntry(c.UserContext(), c.Params("id"))
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary List entries for a date
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.Result[[]model.DiaryEntry]
// @Router /entries/date/{date} [get]
func (h *EntryHandler) ListEntriesByDateFiber(c *fiber.Ctx) error {
	res := h.Service.ListEntriesByDate(c.UserContext(), c.Params("date"))
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Count entries for a date
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} model.Result[int64]
// @Router /entries/date/{date}/count [get]
func (h *EntryHandler) CountEntriesByDateFiber(c *fiber.Ctx) error {
	res := h.Service.CountEntriesByDate(c.UserContext(), c.Params("date"))
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Create an entry
// @Description Creates a new entry for today or a given date. At most 3 active entries may exist per date.
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entry body service.CreateEntryRequest true "Entry payload"
// @Success 201 {object} createEntryResponse
// @Failure 409 {object} errorResponse "Daily entry limit reached"
// @Router /entries [post]
func (h *EntryHandler) CreateEntryFiber(c *fiber.Ctx) error {
	var req service.CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
	}

	res, photoErrors := h.Service.CreateEntry(c.UserContext(), req)
	status := statusFor(res.Error)
	if res.OK() {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(createEntryResponse{
		Data:        res.Data,
		PhotoErrors: photoErrors,
		Error:       res.Error,
	})
}

// @Summary Update an entry
// @Description Partial update; only fields present in the payload change. Always refreshes updated_at.
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param changes body repository.UpdateEntryInput true "Changed fields"
// @Success 200 {object} model.Result[*model.DiaryEntry]
// @Failure 404 {object} errorResponse
// @Router /entries/{id} [put]
func (h *EntryHandler) UpdateEntryFiber(c *fiber.Ctx) error {
	var changes repository.UpdateEntryInput
	if err := c.BodyParser(&changes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
	}
	res := h.Service.UpdateEntry(c.UserContext(), c.Params("id"), changes)
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Delete an entry
// @Description Soft delete: the entry disappears from reads but the row is kept.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} model.Result[*model.DiaryEntry]
// @Failure 404 {object} errorResponse
// @Router /entries/{id} [delete]
func (h *EntryHandler) DeleteEntryFiber(c *fiber.Ctx) error {
	res := h.Service.DeleteEntry(c.UserContext(), c.Params("id"))
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Delete all entries
// @Description Soft-deletes every active entry and returns the affected count.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Result[int64]
// @Router /entries [delete]
func (h *EntryHandler) DeleteAllEntriesFiber(c *fiber.Ctx) error {
	res := h.Service.DeleteAllEntries(c.UserContext())
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Purge deleted entries
// @Description Permanently removes soft-deleted rows and returns the affected count.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Result[int64]
// @Router /entries/purged [delete]
func (h *EntryHandler) PurgeEntriesFiber(c *fiber.Ctx) error {
	res := h.Service.PurgeDeletedEntries(c.UserContext())
	return c.Status(statusFor(res.Error)).JSON(res)
}

// @Summary Upload a photo
// @Description Uploads an image to object storage and attaches it to the entry at the given marker position.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param photo formData file true "Image file"
// @Param caption formData string false "Caption"
// @Param position_index formData int false "Marker offset in the entry content"
// @Success 201 {object} model.Result[*model.EntryPhoto]
// @Failure 502 {object} errorResponse "Upload failed"
// @Router /entries/{id}/photos [post]
func (h *EntryHandler) UploadPhotoFiber(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Missing photo file"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Unreadable photo file"})
	}
	defer file.Close()

	positionIndex, _ := strconv.Atoi(c.FormValue("position_index"))
	res := h.Service.AttachPhoto(c.UserContext(), c.Params("id"), storage.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, c.FormValue("caption"), positionIndex)

	status := statusFor(res.Error)
	if res.OK() {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

// @Summary Reflect on an entry
// @Description Appends one user/assistant turn pair to the entry's AI conversation.
// @Tags Reflection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param message body reflectRequest true "User message"
// @Success 200 {object} model.Result[*model.DiaryEntry]
// @Router /entries/{id}/reflect [post]
func (h *EntryHandler) ReflectFiber(c *fiber.Ctx) error {
	var req reflectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Invalid request body"})
	}
	res := h.Service.Reflect(c.UserContext(), c.Params("id"), req.Message)
	return c.Status(statusFor(res.Error)).JSON(res)
}

// --- Gin handlers ---

// ListEntriesGin handles GET requests to list entries.
func (h *EntryHandler) ListEntriesGin(c *gin.Context) {
	res := h.Service.ListEntries(c.Request.Context())
	c.JSON(statusFor(res.Error), res)
}

// GetEntryGin handles GET requests for a single entry.
func (h *EntryHandler) GetEntryGin(c *gin.Context) {
	res := h.Service.GetEntry(c.Request.Context(), c.Param("id"))
	c.JSON(statusFor(res.Error), res)
}

// ListEntriesByDateGin handles GET requests for a date's entries.
func (h *EntryHandler) ListEntriesByDateGin(c *gin.Context) {
	res := h.Service.ListEntriesByDate(c.Request.Context(), c.Param("date"))
	c.JSON(statusFor(res.Error), res)
}

// CountEntriesByDateGin handles GET requests for a date's entry count.
func (h *EntryHandler) CountEntriesByDateGin(c *gin.Context) {
	res := h.Service.CountEntriesByDate(c.Request.Context(), c.Param("date"))
	c.JSON(statusFor(res.Error), res)
}

// CreateEntryGin handles POST requests to create an entry.
func (h *EntryHandler) CreateEntryGin(c *gin.Context) {
	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	res, photoErrors := h.Service.CreateEntry(c.Request.Context(), req)
	status := statusFor(res.Error)
	if res.OK() {
		status = http.StatusCreated
	}
	c.JSON(status, createEntryResponse{Data: res.Data, PhotoErrors: photoErrors, Error: res.Error})
}

// UpdateEntryGin handles PUT requests to update an entry.
func (h *EntryHandler) UpdateEntryGin(c *gin.Context) {
	var changes repository.UpdateEntryInput
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	res := h.Service.UpdateEntry(c.Request.Context(), c.Param("id"), changes)
	c.JSON(statusFor(res.Error), res)
}

// DeleteEntryGin handles DELETE requests for one entry.
func (h *EntryHandler) DeleteEntryGin(c *gin.Context) {
	res := h.Service.DeleteEntry(c.Request.Context(), c.Param("id"))
	c.JSON(statusFor(res.Error), res)
}

// DeleteAllEntriesGin handles DELETE requests for all entries.
func (h *EntryHandler) DeleteAllEntriesGin(c *gin.Context) {
	res := h.Service.DeleteAllEntries(c.Request.Context())
	c.JSON(statusFor(res.Error), res)
}

// PurgeEntriesGin handles DELETE requests that purge soft-deleted rows.
func (h *EntryHandler) PurgeEntriesGin(c *gin.Context) {
	res := h.Service.PurgeDeletedEntries(c.Request.Context())
	c.JSON(statusFor(res.Error), res)
}

// UploadPhotoGin handles multipart photo uploads.
func (h *EntryHandler) UploadPhotoGin(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing photo file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Unreadable photo file"})
		return
	}
	defer file.Close()

	positionIndex, _ := strconv.Atoi(c.PostForm("position_index"))
	res := h.Service.AttachPhoto(c.Request.Context(), c.Param("id"), storage.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}, c.PostForm("caption"), positionIndex)

	status := statusFor(res.Error)
	if res.OK() {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// ReflectGin handles POST requests for the reflection flow.
func (h *EntryHandler) ReflectGin(c *gin.Context) {
	var req reflectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	res := h.Service.Reflect(c.Request.Context(), c.Param("id"), req.Message)
	c.JSON(statusFor(res.Error), res)
}
