package dynamodb_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/mentana/user-service/internal/adapters/repository/dynamodb"
	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/platform/awsclient"
	"github.com/mentana/user-service/internal/platform/config"
)

// stubAPI implements dynamodb.API with configurable behavior per call.
type stubAPI struct {
	getItem       func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error)
	putItem       func(*awsdynamodb.PutItemInput) (*awsdynamodb.PutItemOutput, error)
	scan          func(*awsdynamodb.ScanInput) (*awsdynamodb.ScanOutput, error)
	transactWrite func(*awsdynamodb.TransactWriteItemsInput) (*awsdynamodb.TransactWriteItemsOutput, error)
	describeTable func(*awsdynamodb.DescribeTableInput) (*awsdynamodb.DescribeTableOutput, error)
}

func (s *stubAPI) GetItem(_ context.Context, in *awsdynamodb.GetItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error) {
	return s.getItem(in)
}

func (s *stubAPI) PutItem(_ context.Context, in *awsdynamodb.PutItemInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error) {
	return s.putItem(in)
}

func (s *stubAPI) Scan(_ context.Context, in *awsdynamodb.ScanInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error) {
	return s.scan(in)
}

func (s *stubAPI) TransactWriteItems(_ context.Context, in *awsdynamodb.TransactWriteItemsInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.TransactWriteItemsOutput, error) {
	return s.transactWrite(in)
}

func (s *stubAPI) DescribeTable(_ context.Context, in *awsdynamodb.DescribeTableInput, _ ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error) {
	return s.describeTable(in)
}

func newRepo(t *testing.T, api *stubAPI) *dynamodb.UserRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	breaker := awsclient.NewBreaker("dynamodb-test", config.CircuitBreakerConfig{
		MaxFailures:   5,
		Timeout:       time.Second,
		HalfOpenLimit: 1,
	}, logger)
	return dynamodb.NewUserRepository(api, "users-test", breaker, logger)
}

func testUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.New("jane@example.com", "Jane Doe")
	if err != nil {
		t.Fatalf("user.New() error = %v", err)
	}
	return u
}

func itemFor(u *user.User) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: u.ID.String()},
		"email":      &types.AttributeValueMemberS{Value: u.Email},
		"name":       &types.AttributeValueMemberS{Value: u.Name},
		"active":     &types.AttributeValueMemberBOOL{Value: u.Active},
		"created_at": &types.AttributeValueMemberS{Value: u.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"updated_at": &types.AttributeValueMemberS{Value: u.UpdatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

func conditionFailedTransaction() error {
	return &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}
}

func TestCreate_WritesUserAndGuardTransactionally(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	var captured *awsdynamodb.TransactWriteItemsInput
	repo := newRepo(t, &stubAPI{
		transactWrite: func(in *awsdynamodb.TransactWriteItemsInput) (*awsdynamodb.TransactWriteItemsOutput, error) {
			captured = in
			return &awsdynamodb.TransactWriteItemsOutput{}, nil
		},
	})

	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("Create() ID = %v, want %v", got.ID, u.ID)
	}

	if len(captured.TransactItems) != 2 {
		t.Fatalf("transaction has %d items, want 2", len(captured.TransactItems))
	}
	for i, item := range captured.TransactItems {
		if item.Put == nil {
			t.Fatalf("item %d is not a Put", i)
		}
		if got := aws.ToString(item.Put.ConditionExpression); got != "attribute_not_exists(id)" {
			t.Errorf("item %d condition = %q, want attribute_not_exists(id)", i, got)
		}
	}

	guardID := captured.TransactItems[1].Put.Item["id"].(*types.AttributeValueMemberS).Value
	if guardID != "email#jane@example.com" {
		t.Errorf("guard key = %q, want %q", guardID, "email#jane@example.com")
	}
}

func TestCreate_DuplicateEmail_ReturnsConflict(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		transactWrite: func(*awsdynamodb.TransactWriteItemsInput) (*awsdynamodb.TransactWriteItemsOutput, error) {
			return nil, conditionFailedTransaction()
		},
	})

	_, err := repo.Create(context.Background(), testUser(t))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Create() error = %v, want domain.ErrConflict", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	repo := newRepo(t, &stubAPI{
		getItem: func(in *awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			key := in.Key["id"].(*types.AttributeValueMemberS).Value
			if key != u.ID.String() {
				t.Errorf("GetItem key = %q, want %q", key, u.ID.String())
			}
			return &awsdynamodb.GetItemOutput{Item: itemFor(u)}, nil
		},
	})

	got, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != u.Email || got.Name != u.Name || !got.Active {
		t.Errorf("GetByID() = %+v, want %+v", got, u)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
	}
}

func TestGetByID_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			return &awsdynamodb.GetItemOutput{}, nil
		},
	})

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want domain.ErrNotFound", err)
	}
}

func TestGetByEmail_ResolvesGuardThenUser(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	repo := newRepo(t, &stubAPI{
		getItem: func(in *awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			switch key := in.Key["id"].(*types.AttributeValueMemberS).Value; key {
			case "email#jane@example.com":
				return &awsdynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
					"id":      &types.AttributeValueMemberS{Value: key},
					"user_id": &types.AttributeValueMemberS{Value: u.ID.String()},
				}}, nil
			case u.ID.String():
				return &awsdynamodb.GetItemOutput{Item: itemFor(u)}, nil
			default:
				t.Fatalf("unexpected GetItem key %q", key)
				return nil, nil
			}
		},
	})

	got, err := repo.GetByEmail(context.Background(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail() ID = %v, want %v", got.ID, u.ID)
	}
}

func TestGetByEmail_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			return &awsdynamodb.GetItemOutput{}, nil
		},
	})

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want domain.ErrNotFound", err)
	}
}

func TestList_FollowsPagination(t *testing.T) {
	t.Parallel()

	a, b := testUser(t), testUser(t)
	calls := 0
	repo := newRepo(t, &stubAPI{
		scan: func(in *awsdynamodb.ScanInput) (*awsdynamodb.ScanOutput, error) {
			calls++
			if aws.ToString(in.FilterExpression) != "attribute_exists(email)" {
				t.Errorf("filter = %q, want attribute_exists(email)", aws.ToString(in.FilterExpression))
			}
			if calls == 1 {
				return &awsdynamodb.ScanOutput{
					Items:            []map[string]types.AttributeValue{itemFor(a)},
					LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: a.ID.String()}},
				}, nil
			}
			if in.ExclusiveStartKey == nil {
				t.Error("second page missing ExclusiveStartKey")
			}
			return &awsdynamodb.ScanOutput{
				Items: []map[string]types.AttributeValue{itemFor(b)},
			}, nil
		},
	})

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("scan calls = %d, want 2", calls)
	}
	if len(users) != 2 {
		t.Fatalf("List() returned %d users, want 2", len(users))
	}
}

func TestListActive_FiltersOnActiveFlag(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		scan: func(in *awsdynamodb.ScanInput) (*awsdynamodb.ScanOutput, error) {
			want := "attribute_exists(email) AND active = :active"
			if aws.ToString(in.FilterExpression) != want {
				t.Errorf("filter = %q, want %q", aws.ToString(in.FilterExpression), want)
			}
			v, ok := in.ExpressionAttributeValues[":active"].(*types.AttributeValueMemberBOOL)
			if !ok || !v.Value {
				t.Errorf(":active = %v, want BOOL true", in.ExpressionAttributeValues[":active"])
			}
			return &awsdynamodb.ScanOutput{}, nil
		},
	})

	users, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("ListActive() returned %d users, want 0", len(users))
	}
}

func TestUpdate_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		putItem: func(in *awsdynamodb.PutItemInput) (*awsdynamodb.PutItemOutput, error) {
			if aws.ToString(in.ConditionExpression) != "attribute_exists(id)" {
				t.Errorf("condition = %q, want attribute_exists(id)", aws.ToString(in.ConditionExpression))
			}
			return nil, &types.ConditionalCheckFailedException{}
		},
	})

	_, err := repo.Update(context.Background(), testUser(t))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want domain.ErrNotFound", err)
	}
}

func TestDelete_RemovesUserAndGuard(t *testing.T) {
	t.Parallel()

	u := testUser(t)
	var captured *awsdynamodb.TransactWriteItemsInput
	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			return &awsdynamodb.GetItemOutput{Item: itemFor(u)}, nil
		},
		transactWrite: func(in *awsdynamodb.TransactWriteItemsInput) (*awsdynamodb.TransactWriteItemsOutput, error) {
			captured = in
			return &awsdynamodb.TransactWriteItemsOutput{}, nil
		},
	})

	if err := repo.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(captured.TransactItems) != 2 {
		t.Fatalf("transaction has %d items, want 2", len(captured.TransactItems))
	}
	guardID := captured.TransactItems[1].Delete.Key["id"].(*types.AttributeValueMemberS).Value
	if guardID != "email#jane@example.com" {
		t.Errorf("guard key = %q, want %q", guardID, "email#jane@example.com")
	}
}

func TestDelete_Missing_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			return &awsdynamodb.GetItemOutput{}, nil
		},
	})

	if err := repo.Delete(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() error = %v, want domain.ErrNotFound", err)
	}
}

func TestTransportFailure_ReturnsUnavailable(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			return nil, errors.New("connection reset")
		},
	})

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("GetByID() error = %v, want domain.ErrUnavailable", err)
	}
}

func TestBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			calls++
			return nil, errors.New("connection reset")
		},
	})

	// Trip the breaker, then verify it rejects without reaching the stub.
	for i := 0; i < 5; i++ {
		_, _ = repo.GetByID(context.Background(), uuid.New())
	}
	callsWhenOpen := calls

	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("GetByID() error = %v, want domain.ErrUnavailable", err)
	}
	if calls != callsWhenOpen {
		t.Errorf("stub called %d times after breaker opened, want %d", calls, callsWhenOpen)
	}
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	t.Parallel()

	calls := 0
	repo := newRepo(t, &stubAPI{
		getItem: func(*awsdynamodb.GetItemInput) (*awsdynamodb.GetItemOutput, error) {
			calls++
			return &awsdynamodb.GetItemOutput{}, nil
		},
	})

	for i := 0; i < 10; i++ {
		_, err := repo.GetByID(context.Background(), uuid.New())
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByID() error = %v, want domain.ErrNotFound", err)
		}
	}
	if calls != 10 {
		t.Errorf("stub called %d times, want 10 (breaker must stay closed)", calls)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()
		repo := newRepo(t, &stubAPI{
			describeTable: func(in *awsdynamodb.DescribeTableInput) (*awsdynamodb.DescribeTableOutput, error) {
				if aws.ToString(in.TableName) != "users-test" {
					t.Errorf("table = %q, want users-test", aws.ToString(in.TableName))
				}
				return &awsdynamodb.DescribeTableOutput{}, nil
			},
		})
		if err := repo.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck() error = %v, want nil", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		repo := newRepo(t, &stubAPI{
			describeTable: func(*awsdynamodb.DescribeTableInput) (*awsdynamodb.DescribeTableOutput, error) {
				return nil, errors.New("connection refused")
			},
		})
		if err := repo.HealthCheck(context.Background()); err == nil {
			t.Error("HealthCheck() error = nil, want error")
		}
	})

	t.Run("name", func(t *testing.T) {
		t.Parallel()
		repo := newRepo(t, &stubAPI{})
		if repo.Name() != "dynamodb" {
			t.Errorf("Name() = %q, want dynamodb", repo.Name())
		}
	})
}
