package store

import (
	"context"
	"testing"
	"time"

	"mytown-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// --------------------- Setup ---------------------
func newMockMongo(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func mockIssueStore(mt *mtest.T) *Mongo {
	return NewMongo(mt.DB, WithClock(func() time.Time { return fixedNow }))
}

func issueDoc(id, title, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "category", Value: "Pothole"},
		{Key: "status", Value: status},
		{Key: "priority", Value: "High"},
		{Key: "createdAt", Value: fixedNow},
		{Key: "updatedAt", Value: fixedNow},
	}
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, e := range mt.GetAllStartedEvents() {
		names = append(names, e.CommandName)
	}
	return names
}

// --------------------- Add ---------------------
func TestMongoAdd(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("generates id from counter", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "issues"}, {Key: "seq", Value: int64(7)},
			}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		created, err := st.Add(context.Background(), models.Issue{Title: "Leak"})
		require.NoError(mt, err)
		assert.Equal(mt, "CIV-2024-000007", created.ID)
		assert.Equal(mt, models.Pending, created.Status)
		assert.Equal(mt, models.Medium, created.Priority)
		assert.Equal(mt, []string{"findAndModify", "insert"}, commandNames(mt))
	})

	mt.Run("explicit id raises counter", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		created, err := st.Add(context.Background(), models.Issue{ID: "CIV-2024-001234", Title: "Pothole"})
		require.NoError(mt, err)
		assert.Equal(mt, "CIV-2024-001234", created.ID)

		started := mt.GetAllStartedEvents()
		require.Len(mt, started, 2)
		assert.Equal(mt, "update", started[0].CommandName)
		assert.Equal(mt, int64(1234), started[0].Command.Lookup("updates", "0", "u", "$max", "seq").AsInt64())
	})

	mt.Run("duplicate id", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
		)

		_, err := st.Add(context.Background(), models.Issue{ID: "CIV-2024-001234", Title: "dup"})
		assert.ErrorIs(mt, err, ErrDuplicateID)
	})
}

// --------------------- UpdateStatus / Assign ---------------------
func TestMongoUpdateStatus(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("unknown id", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, found, err := st.UpdateStatus(context.Background(), "CIV-0000-000000", "resolved")
		require.NoError(mt, err)
		assert.False(mt, found)
	})

	mt.Run("display cased status is written", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value", Value: issueDoc("CIV-2024-001236", "Graffiti", "In progress"),
		}))

		issue, found, err := st.UpdateStatus(context.Background(), "CIV-2024-001236", "in-progress")
		require.NoError(mt, err)
		require.True(mt, found)
		assert.Equal(mt, models.IssueStatus("In progress"), issue.Status)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "In progress", cmd.Lookup("update", "$set", "status").StringValue())
	})

	mt.Run("invalid status sends nothing", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		_, _, err := st.UpdateStatus(context.Background(), "CIV-2024-001236", "closed")
		assert.ErrorIs(mt, err, models.ErrInvalidStatus)
		assert.Empty(mt, mt.GetAllStartedEvents())
	})
}

func TestMongoAssign_UnknownID(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("unknown id", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, found, err := st.Assign(context.Background(), "missing", "Sanitation")
		require.NoError(mt, err)
		assert.False(mt, found)
	})
}

// --------------------- Get ---------------------
func TestMongoGet_NotFound(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("not found", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch))

		_, err := st.Get(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

// --------------------- Query ---------------------
func TestMongoQuery_Paging(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("second page", func(mt *mtest.T) {
		st := mockIssueStore(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: 1}, {Key: "n", Value: int32(5)},
			}),
			mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch,
				issueDoc("CIV-2024-000003", "Third", "Pending"),
				issueDoc("CIV-2024-000002", "Second", "Urgent"),
			),
		)

		page, err := st.Query(context.Background(), models.IssueQuery{
			IssueFilter: models.IssueFilter{Priority: "high"},
			Page:        2,
			Limit:       2,
		})
		require.NoError(mt, err)
		assert.Equal(mt, int64(5), page.TotalIssues)
		assert.Equal(mt, 3, page.TotalPages)
		assert.Equal(mt, 2, page.CurrentPage)
		require.Len(mt, page.Issues, 2)
		assert.Equal(mt, "CIV-2024-000003", page.Issues[0].ID)

		find := mt.GetAllStartedEvents()[1].Command
		assert.Equal(mt, int64(2), find.Lookup("skip").AsInt64())
		assert.Equal(mt, int64(2), find.Lookup("limit").AsInt64())
		assert.Equal(mt, int64(-1), find.Lookup("sort", "createdAt").AsInt64())
	})
}

// --------------------- MongoUsers ---------------------
func TestMongoUsersCreate_DuplicateEmail(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("duplicate email", func(mt *mtest.T) {
		users := NewMongoUsers(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "duplicate key error"}))

		err := users.Create(context.Background(), &models.User{Email: "a@example.com"})
		assert.ErrorIs(mt, err, ErrEmailTaken)
	})

	mt.Run("find by email normalises", func(mt *mtest.T) {
		users := NewMongoUsers(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"}, {Key: "email", Value: "a@example.com"}, {Key: "role", Value: "admin"},
		}))

		user, err := users.FindByEmail(context.Background(), "  A@Example.com ")
		require.NoError(mt, err)
		assert.Equal(mt, models.RoleAdmin, user.Role)

		filter := mt.GetStartedEvent().Command.Lookup("filter", "email").StringValue()
		assert.Equal(mt, "a@example.com", filter)
	})
}
