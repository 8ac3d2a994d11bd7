package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mytown-issues/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is an IssueStore backed by the "issues" collection. Store order is
// approximated by createdAt descending.
type Mongo struct {
	issues   *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

var _ IssueStore = (*Mongo)(nil)

func NewMongo(db *mongo.Database, opts ...Option) *Mongo {
	o := buildOptions(opts)
	return &Mongo{
		issues:   db.Collection("issues"),
		counters: db.Collection("counters"),
		now:      o.now,
	}
}

// EnsureIndexes creates the indexes used by listing and filtering.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.issues.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "priority", Value: 1}}},
	})
	return err
}

func (m *Mongo) Add(ctx context.Context, issue models.Issue) (models.Issue, error) {
	now := m.now()
	if issue.ID == "" {
		seq, err := m.nextSeq(ctx)
		if err != nil {
			return models.Issue{}, err
		}
		issue.ID = models.FormatIssueID(now.Year(), seq)
	} else if seq, ok := parseSeq(issue.ID); ok {
		if err := m.raiseSeq(ctx, seq); err != nil {
			return models.Issue{}, err
		}
	}
	fillDefaults(&issue, now)

	if _, err := m.issues.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Issue{}, fmt.Errorf("%w: %s", ErrDuplicateID, issue.ID)
		}
		return models.Issue{}, fmt.Errorf("insert issue: %w", err)
	}
	return issue, nil
}

func (m *Mongo) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "issues"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next issue sequence: %w", err)
	}
	return counter.Seq, nil
}

// raiseSeq keeps generated ids clear of explicitly supplied ones.
func (m *Mongo) raiseSeq(ctx context.Context, seq int64) error {
	_, err := m.counters.UpdateOne(ctx,
		bson.M{"_id": "issues"},
		bson.M{"$max": bson.M{"seq": seq}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("raise issue sequence: %w", err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, id string) (models.Issue, error) {
	var issue models.Issue
	err := m.issues.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Issue{}, fmt.Errorf("find issue: %w", err)
	}
	return issue, nil
}

func (m *Mongo) UpdateStatus(ctx context.Context, id, status string) (models.Issue, bool, error) {
	if _, err := models.ParseStatus(status); err != nil {
		return models.Issue{}, false, err
	}
	return m.set(ctx, id, bson.M{"status": models.DisplayCase(status)})
}

func (m *Mongo) Assign(ctx context.Context, id, department string) (models.Issue, bool, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return models.Issue{}, false, ErrEmptyDepartment
	}
	return m.set(ctx, id, bson.M{"assignedTo": department})
}

func (m *Mongo) set(ctx context.Context, id string, fields bson.M) (models.Issue, bool, error) {
	fields["updatedAt"] = m.now()

	var issue models.Issue
	err := m.issues.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Issue{}, false, nil
	}
	if err != nil {
		return models.Issue{}, false, fmt.Errorf("update issue: %w", err)
	}
	return issue, true, nil
}

func (m *Mongo) Filter(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	return m.find(ctx, filterDocument(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (m *Mongo) Query(ctx context.Context, q models.IssueQuery) (models.IssuePage, error) {
	q = q.Normalize()
	filter := filterDocument(q.IssueFilter)

	totalCount, err := m.issues.CountDocuments(ctx, filter)
	if err != nil {
		return models.IssuePage{}, fmt.Errorf("count issues: %w", err)
	}

	order := -1
	if q.Sort == models.SortOldest {
		order = 1
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: order}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	issues, err := m.find(ctx, filter, findOptions)
	if err != nil {
		return models.IssuePage{}, err
	}
	return models.NewIssuePage(issues, totalCount, q), nil
}

func (m *Mongo) All(ctx context.Context) ([]models.Issue, error) {
	return m.Filter(ctx, models.IssueFilter{})
}

func (m *Mongo) Len(ctx context.Context) (int, error) {
	n, err := m.issues.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return int(n), nil
}

func (m *Mongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Issue, error) {
	cursor, err := m.issues.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

// filterDocument translates an IssueFilter into a query with the same
// case and separator folding as IssueFilter.Matches.
func filterDocument(f models.IssueFilter) bson.M {
	filter := bson.M{}
	for field, value := range map[string]string{
		"status":   f.Status,
		"category": f.Category,
		"priority": f.Priority,
	} {
		if pattern, ok := labelPattern(value); ok {
			filter[field] = bson.M{"$regex": pattern, "$options": "i"}
		}
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		quoted := regexp.QuoteMeta(search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": quoted, "$options": "i"}},
			{"description": bson.M{"$regex": quoted, "$options": "i"}},
		}
	}
	return filter
}

func labelPattern(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "all") {
		return "", false
	}
	words := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return "^" + strings.Join(words, "[-_ ]+") + "$", true
}
