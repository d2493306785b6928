package reports

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/careloop-org/labresults/store"
)

const (
	reportsCollectionName = "labReports"
)

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(reportsCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type repository struct {
	collection *mongo.Collection
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "patientId", Value: 1},
				{Key: "labId", Value: 1},
				{Key: "externalReferenceId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniqueExternalReference"),
		},
		{
			Keys: bson.D{
				{Key: "patientId", Value: 1},
				{Key: "results.testCode", Value: 1},
				{Key: "collectionDate", Value: -1},
			},
			Options: options.Index().
				SetName("PatientTestHistory"),
		},
		{
			Keys: bson.D{
				{Key: "patientId", Value: 1},
				{Key: "collectionDate", Value: -1},
			},
			Options: options.Index().
				SetName("PatientCollectionDate"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*LabReport, error) {
	objId, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid report id", ErrNotFound)
	}

	report := &LabReport{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objId}).Decode(report)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *repository) FindDuplicate(ctx context.Context, patientId, labId, externalReferenceId string) (*LabReport, error) {
	selector := bson.M{
		"patientId":           patientId,
		"labId":               labId,
		"externalReferenceId": externalReferenceId,
	}

	report := &LabReport{}
	err := r.collection.FindOne(ctx, selector).Decode(report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *repository) FindLatestBefore(ctx context.Context, patientId, testCode string, before time.Time) (*LabReport, error) {
	selector := bson.M{
		"patientId":        patientId,
		"results.testCode": testCode,
		"collectionDate":   bson.M{"$lt": before},
	}
	opts := options.FindOne().
		SetSort(bson.D{
			{Key: "collectionDate", Value: -1},
			{Key: "_id", Value: -1},
		})

	report := &LabReport{}
	err := r.collection.FindOne(ctx, selector, opts).Decode(report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return report, nil
}

func (r *repository) Create(ctx context.Context, report LabReport) (*LabReport, error) {
	if report.CreatedTime.IsZero() {
		report.CreatedTime = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s/%s/%s", ErrDuplicate, report.PatientId, report.LabId, report.ExternalReferenceId)
		}
		return nil, err
	}

	id := res.InsertedID.(primitive.ObjectID)
	return r.Get(ctx, id.Hex())
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) (*ListResult, error) {
	selector := listSelector(filter)

	total, err := r.collection.CountDocuments(ctx, selector)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset)).
		SetSort(bson.D{
			{Key: "collectionDate", Value: -1},
			{Key: "_id", Value: -1},
		})

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, err
	}

	reports := make([]*LabReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}

	return &ListResult{
		Reports:    reports,
		TotalCount: int(total),
	}, nil
}

func (r *repository) TestHistory(ctx context.Context, patientId, testCode string, pagination store.Pagination) ([]*TestHistoryEntry, error) {
	filter := &Filter{
		PatientId: patientId,
		TestCode:  &testCode,
	}

	result, err := r.List(ctx, filter, pagination)
	if err != nil {
		return nil, err
	}

	history := make([]*TestHistoryEntry, 0, len(result.Reports))
	for _, report := range result.Reports {
		match := report.FindResult(testCode)
		if match == nil {
			continue
		}

		entry := &TestHistoryEntry{
			ExternalReferenceId: report.ExternalReferenceId,
			LabId:               report.LabId,
			CollectionDate:      report.CollectionDate,
			Result:              *match,
			Trend:               report.FindTrendEntry(testCode),
		}
		if report.Id != nil {
			entry.ReportId = report.Id.Hex()
		}
		history = append(history, entry)
	}

	return history, nil
}

func listSelector(filter *Filter) bson.M {
	selector := bson.M{
		"patientId": filter.PatientId,
	}
	if filter.TestCode != nil {
		selector["results.testCode"] = *filter.TestCode
	}

	collectionDate := bson.M{}
	if filter.From != nil {
		collectionDate["$gte"] = *filter.From
	}
	if filter.To != nil {
		collectionDate["$lte"] = *filter.To
	}
	if len(collectionDate) > 0 {
		selector["collectionDate"] = collectionDate
	}

	if filter.CriticalOnly {
		selector["clinicalSignificance.hasCriticalValues"] = true
	} else if filter.AbnormalOnly {
		selector["clinicalSignificance.hasAbnormalValues"] = true
	}

	return selector
}
