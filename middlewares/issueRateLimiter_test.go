package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mytown-issues/middlewares"
	"mytown-issues/middlewares/mock_middlewares"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// --------------------- Setup ---------------------
func setupLimiter(t *testing.T, userID string) (*gin.Engine, *mock_middlewares.MockRateCounter) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })
	counter := mock_middlewares.NewMockRateCounter(ctrl)

	r := gin.New()
	r.POST("/issues",
		func(c *gin.Context) {
			if userID != "" {
				c.Set(middlewares.UserIDKey, userID)
			}
		},
		middlewares.IssueRateLimiter(counter, "issue-limit", 2, 24*time.Hour, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	return r, counter
}

func post(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	return w
}

// --------------------- IssueRateLimiter ---------------------
func TestIssueRateLimiter_FirstRequestStartsWindow(t *testing.T) {
	r, counter := setupLimiter(t, "u1")
	counter.EXPECT().Incr(gomock.Any(), "issue-limit:u1").Return(int64(1), nil)
	counter.EXPECT().Expire(gomock.Any(), "issue-limit:u1", 24*time.Hour).Return(nil)

	assert.Equal(t, http.StatusCreated, post(r).Code)
}

func TestIssueRateLimiter_WithinLimit(t *testing.T) {
	r, counter := setupLimiter(t, "u1")
	counter.EXPECT().Incr(gomock.Any(), "issue-limit:u1").Return(int64(2), nil)

	assert.Equal(t, http.StatusCreated, post(r).Code)
}

func TestIssueRateLimiter_Exceeded(t *testing.T) {
	r, counter := setupLimiter(t, "u1")
	counter.EXPECT().Incr(gomock.Any(), "issue-limit:u1").Return(int64(3), nil)
	counter.EXPECT().TTL(gomock.Any(), "issue-limit:u1").Return(90*time.Second, nil)

	w := post(r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded","retry_after":90}`, w.Body.String())
}

func TestIssueRateLimiter_CounterError(t *testing.T) {
	r, counter := setupLimiter(t, "u1")
	counter.EXPECT().Incr(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, post(r).Code)
}

func TestIssueRateLimiter_ExpireError(t *testing.T) {
	r, counter := setupLimiter(t, "u1")
	counter.EXPECT().Incr(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	counter.EXPECT().Expire(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

	assert.Equal(t, http.StatusInternalServerError, post(r).Code)
}

func TestIssueRateLimiter_NoUser(t *testing.T) {
	r, _ := setupLimiter(t, "")
	assert.Equal(t, http.StatusUnauthorized, post(r).Code)
}
