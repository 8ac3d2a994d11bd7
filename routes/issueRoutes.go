package routes

import (
	"slices"
	"time"

	"mytown-issues/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue, submission and admin routes
func IssueRoutes(r *gin.Engine, d Deps, auth gin.HandlerFunc) {
	h := d.Issues

	submit := []gin.HandlerFunc{auth}
	if d.RateCounter != nil {
		submit = append(submit, middlewares.IssueRateLimiter(d.RateCounter, d.RateLimitPrefix, d.IssueDailyLimit, 24*time.Hour, d.Logger))
	}

	issues := r.Group("/api/issues")
	{
		issues.GET("", h.GetAllIssues)
		issues.GET("/recent", h.RecentIssues)
		issues.GET("/:id", h.GetIssue)
		issues.POST("", slices.Concat(submit, []gin.HandlerFunc{h.CreateIssue})...)
		issues.POST("/async", slices.Concat(submit, []gin.HandlerFunc{h.SubmitIssueAsync})...)
		issues.PATCH("/:id/status", auth, middlewares.RequireAdmin(), h.UpdateIssueStatus)
		issues.PATCH("/:id/assign", auth, middlewares.RequireAdmin(), h.AssignIssue)
	}

	submissions := r.Group("/api/submissions", auth)
	{
		submissions.GET("/:id", h.GetSubmission)
		submissions.DELETE("/:id", h.CancelSubmission)
	}

	r.GET("/api/meta", h.GetMeta)
	r.GET("/api/admin/stats", auth, middlewares.RequireAdmin(), h.GetIssueAnalytics)
}
