package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"mytown-issues/middlewares"
	"mytown-issues/models"
	"mytown-issues/services"
	"mytown-issues/storage"
	"mytown-issues/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// recentLimit caps the issues returned by RecentIssues.
const recentLimit = 19

type IssueController struct {
	Issues        store.IssueStore
	Submitter     *services.Submitter
	MaxPhotoBytes int64
	Logger        *zap.Logger
}

type reportInput struct {
	Title           string   `form:"title" json:"title" binding:"max=200"`
	Description     string   `form:"description" json:"description" binding:"max=1000"`
	Category        string   `form:"category" json:"category"`
	Location        string   `form:"location" json:"location" binding:"max=200"`
	Priority        string   `form:"priority" json:"priority" binding:"omitempty,priority"`
	Latitude        *float64 `form:"lat" json:"lat" binding:"omitempty,latitude"`
	Longitude       *float64 `form:"lng" json:"lng" binding:"omitempty,longitude"`
	ReporterContact *string  `form:"reporterContact" json:"reporterContact" binding:"omitempty,email"`
}

// bindReport reads a JSON or multipart report. Required-field checks are left
// to the submitter so every missing field is reported at once.
func (h *IssueController) bindReport(c *gin.Context) (services.Report, bool) {
	var input reportInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.Report{}, false
	}

	report := services.Report{
		Title:           input.Title,
		Category:        input.Category,
		Location:        input.Location,
		Description:     input.Description,
		Priority:        input.Priority,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		ReporterContact: input.ReporterContact,
		CreatedBy:       c.GetString(middlewares.UserIDKey),
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		photo, status, err := h.readPhoto(c)
		if err != nil {
			c.JSON(status, gin.H{"error": err.Error()})
			return services.Report{}, false
		}
		report.Photo = photo
	}
	return report, true
}

func (h *IssueController) readPhoto(c *gin.Context) (*services.Photo, int, error) {
	header, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, http.StatusOK, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if h.MaxPhotoBytes > 0 && header.Size > h.MaxPhotoBytes {
		return nil, http.StatusRequestEntityTooLarge, errors.New("photo is too large")
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, http.StatusBadRequest, errors.New("photo must be an image")
	}

	f, err := header.Open()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	return &services.Photo{Filename: header.Filename, ContentType: contentType, Data: data}, http.StatusOK, nil
}

// submitError maps validation and processing failures to responses.
func (h *IssueController) submitError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, models.ErrInvalidCategory), errors.Is(err, models.ErrInvalidPriority),
		errors.Is(err, services.ErrPartialCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrPhotosDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not available"})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Submission was cancelled"})
	default:
		h.Logger.Error("Failed to create issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
	}
}

// CreateIssue submits a report and waits for it to land in the store
func (h *IssueController) CreateIssue(c *gin.Context) {
	report, ok := h.bindReport(c)
	if !ok {
		return
	}

	sub, err := h.Submitter.Submit(c.Request.Context(), report)
	if err != nil {
		h.submitError(c, err)
		return
	}

	issue, err := sub.Wait(c.Request.Context())
	if err != nil {
		h.submitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// SubmitIssueAsync accepts a report and returns its submission for polling
func (h *IssueController) SubmitIssueAsync(c *gin.Context) {
	report, ok := h.bindReport(c)
	if !ok {
		return
	}

	sub, err := h.Submitter.Submit(context.WithoutCancel(c.Request.Context()), report)
	if err != nil {
		h.submitError(c, err)
		return
	}

	c.Header("Location", "/api/submissions/"+sub.ID)
	c.JSON(http.StatusAccepted, sub.View())
}

// ownSubmission finds a submission visible to the caller.
func (h *IssueController) ownSubmission(c *gin.Context) (*services.Submission, bool) {
	sub, ok := h.Submitter.Lookup(c.Param("id"))
	if !ok || (sub.Owner != c.GetString(middlewares.UserIDKey) && !middlewares.IsAdmin(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return nil, false
	}
	return sub, true
}

// GetSubmission reports the progress of an asynchronous submission
func (h *IssueController) GetSubmission(c *gin.Context) {
	sub, ok := h.ownSubmission(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sub.View())
}

// CancelSubmission aborts a pending submission
func (h *IssueController) CancelSubmission(c *gin.Context) {
	sub, ok := h.ownSubmission(c)
	if !ok {
		return
	}
	h.Submitter.Cancel(sub.ID)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
	case <-c.Request.Context().Done():
	}
	c.JSON(http.StatusOK, sub.View())
}

// GetAllIssues lists issues with filtering, sorting and pagination
func (h *IssueController) GetAllIssues(c *gin.Context) {
	var q models.IssueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.Issues.Query(c.Request.Context(), q)
	if err != nil {
		h.Logger.Error("Failed to retrieve issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetIssue retrieves an issue by its ID
func (h *IssueController) GetIssue(c *gin.Context) {
	issue, err := h.Issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
			return
		}
		h.Logger.Error("Failed to retrieve issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		return
	}

	c.JSON(http.StatusOK, issue)
}

// UpdateIssueStatus moves an issue to another lifecycle stage
func (h *IssueController) UpdateIssueStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required,issuestatus"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	issue, found, err := h.Issues.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status)
	if err != nil {
		if errors.Is(err, models.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		h.Logger.Error("Failed to update issue status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	h.Logger.Info("Issue status updated",
		zap.String("issue", issue.ID),
		zap.String("status", string(issue.Status)),
		zap.String("by", c.GetString(middlewares.UserIDKey)))
	c.JSON(http.StatusOK, issue)
}

// AssignIssue hands an issue to a department
func (h *IssueController) AssignIssue(c *gin.Context) {
	var input struct {
		Department string `json:"department" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issue, found, err := h.Issues.Assign(c.Request.Context(), c.Param("id"), input.Department)
	if err != nil {
		if errors.Is(err, store.ErrEmptyDepartment) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.Logger.Error("Failed to assign issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	c.JSON(http.StatusOK, issue)
}

// GetIssueAnalytics returns the administrator dashboard figures
func (h *IssueController) GetIssueAnalytics(c *gin.Context) {
	issues, err := h.Issues.All(c.Request.Context())
	if err != nil {
		h.Logger.Error("Failed to retrieve issues for analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get analytics"})
		return
	}

	c.JSON(http.StatusOK, services.ComputeStats(issues, time.Now()))
}

// RecentIssues returns the most recent issues that have coordinates
func (h *IssueController) RecentIssues(c *gin.Context) {
	issues, err := h.Issues.All(c.Request.Context())
	if err != nil {
		h.Logger.Error("Failed to retrieve recent issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}

	type IssueResponse struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Latitude  float64   `json:"lat"`
		Longitude float64   `json:"lng"`
		Location  string    `json:"location"`
		Category  string    `json:"category"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"date"`
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})

	response := make([]IssueResponse, 0, recentLimit)
	for _, issue := range issues {
		if !issue.HasCoordinates() {
			continue
		}
		response = append(response, IssueResponse{
			ID:        issue.ID,
			Title:     issue.Title,
			Latitude:  *issue.Latitude,
			Longitude: *issue.Longitude,
			Location:  issue.Location,
			Category:  string(issue.Category),
			Status:    string(issue.Status),
			CreatedAt: issue.CreatedAt,
		})
		if len(response) == recentLimit {
			break
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetMeta lists the values the report form and filters offer
func (h *IssueController) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":  models.Categories,
		"statuses":    models.Statuses,
		"priorities":  models.Priorities,
		"departments": models.Departments,
	})
}
