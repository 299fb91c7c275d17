// Package dynamodb implements the user repository port on a single DynamoDB
// table.
//
// Layout: the partition key "id" holds either a user item (keyed by the user's
// UUID) or an email guard item (keyed by "email#<lowercased address>"). Guard
// items pin email uniqueness: Create writes the user and its guard in one
// TransactWriteItems with attribute_not_exists conditions, so a duplicate
// address fails the whole transaction. Guard items carry no "email" attribute,
// which is what scans filter on to skip them.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/mentana/user-service/internal/domain"
	"github.com/mentana/user-service/internal/domain/user"
	"github.com/mentana/user-service/internal/platform/awsclient"
	"github.com/mentana/user-service/internal/ports"
)

// checkerName identifies this adapter in health reports.
const checkerName = "dynamodb"

// API is the subset of the DynamoDB client used by the repository.
// Satisfied by *dynamodb.Client; narrowed for stubbing in tests.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Compile-time interface checks.
var (
	_ ports.UserRepository = (*UserRepository)(nil)
	_ ports.HealthChecker  = (*UserRepository)(nil)
	_ API                  = (*dynamodb.Client)(nil)
)

// UserRepository is a DynamoDB-backed implementation of [ports.UserRepository].
// All calls run through a circuit breaker; translated business errors
// (not found, conflict) do not count as breaker failures.
type UserRepository struct {
	client  API
	table   string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewUserRepository creates a repository against the given table.
func NewUserRepository(client API, table string, breaker *gobreaker.CircuitBreaker[struct{}], logger *slog.Logger) *UserRepository {
	return &UserRepository{
		client:  client,
		table:   table,
		breaker: breaker,
		logger:  logger,
	}
}

// userItem is the stored shape of a user. Timestamps are RFC 3339 strings so
// items stay readable in the console.
type userItem struct {
	ID        string `dynamodbav:"id"`
	Email     string `dynamodbav:"email"`
	Name      string `dynamodbav:"name"`
	Active    bool   `dynamodbav:"active"`
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// emailGuardItem reserves an email address. Its key shares the table's "id"
// partition key with user items, namespaced by the "email#" prefix.
type emailGuardItem struct {
	ID     string `dynamodbav:"id"`
	UserID string `dynamodbav:"user_id"`
}

func guardKey(email string) string {
	return "email#" + strings.ToLower(strings.TrimSpace(email))
}

func toItem(u *user.User) userItem {
	return userItem{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Active:    u.Active,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func fromItem(it userItem) (*user.User, error) {
	id, err := uuid.Parse(it.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing stored user id %q: %w", it.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for user %s: %w", it.ID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at for user %s: %w", it.ID, err)
	}
	return &user.User{
		ID:        id,
		Email:     it.Email,
		Name:      it.Name,
		Active:    it.Active,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// Create persists a new user together with its email guard item in a single
// transaction. Either condition failing means the ID or email is taken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	item, err := attributevalue.MarshalMap(toItem(u))
	if err != nil {
		return nil, fmt.Errorf("marshaling user %s: %w", u.ID, err)
	}
	guard, err := attributevalue.MarshalMap(emailGuardItem{
		ID:     guardKey(u.Email),
		UserID: u.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling email guard for user %s: %w", u.ID, err)
	}

	_, err = r.execute(ctx, func(ctx context.Context) error {
		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{Put: &types.Put{
					TableName:           aws.String(r.table),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				}},
				{Put: &types.Put{
					TableName:           aws.String(r.table),
					Item:                guard,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				}},
			},
		})
		if isTransactionConditionFailure(err) {
			return fmt.Errorf("user %s or email already exists: %w", u.ID, domain.ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, r.translate("create user", err)
	}

	stored := *u
	return &stored, nil
}

// GetByID returns a single user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var it userItem
	_, err := r.execute(ctx, func(ctx context.Context) error {
		out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(r.table),
			Key:            idKey(id.String()),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return attributevalue.UnmarshalMap(out.Item, &it)
	})
	if err != nil {
		return nil, r.translate("get user", err)
	}
	return fromItem(it)
}

// GetByEmail resolves the email guard item to a user ID, then loads the user.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var guard emailGuardItem
	_, err := r.execute(ctx, func(ctx context.Context) error {
		out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(r.table),
			Key:            idKey(guardKey(email)),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return fmt.Errorf("user with email %q: %w", email, domain.ErrNotFound)
		}
		return attributevalue.UnmarshalMap(out.Item, &guard)
	})
	if err != nil {
		return nil, r.translate("get user by email", err)
	}

	id, err := uuid.Parse(guard.UserID)
	if err != nil {
		return nil, fmt.Errorf("parsing guard user_id %q: %w", guard.UserID, err)
	}
	return r.GetByID(ctx, id)
}

// List returns all users, following scan pagination. Guard items are skipped
// via the attribute_exists(email) filter.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	return r.scan(ctx, "list users",
		aws.String("attribute_exists(email)"), nil)
}

// ListActive returns all users whose active flag is set.
func (r *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	return r.scan(ctx, "list active users",
		aws.String("attribute_exists(email) AND active = :active"),
		map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberBOOL{Value: true},
		})
}

func (r *UserRepository) scan(ctx context.Context, op string, filter *string, values map[string]types.AttributeValue) ([]user.User, error) {
	var items []userItem
	_, err := r.execute(ctx, func(ctx context.Context) error {
		var startKey map[string]types.AttributeValue
		for {
			out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
				TableName:                 aws.String(r.table),
				FilterExpression:          filter,
				ExpressionAttributeValues: values,
				ExclusiveStartKey:         startKey,
			})
			if err != nil {
				return err
			}
			var page []userItem
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
				return fmt.Errorf("unmarshaling scan page: %w", err)
			}
			items = append(items, page...)
			if out.LastEvaluatedKey == nil {
				return nil
			}
			startKey = out.LastEvaluatedKey
		}
	})
	if err != nil {
		return nil, r.translate(op, err)
	}

	users := make([]user.User, 0, len(items))
	for _, it := range items {
		u, err := fromItem(it)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

// Update overwrites an existing user's item. The email is immutable, so the
// guard item is untouched.
func (r *UserRepository) Update(ctx context.Context, u *user.User) (*user.User, error) {
	item, err := attributevalue.MarshalMap(toItem(u))
	if err != nil {
		return nil, fmt.Errorf("marshaling user %s: %w", u.ID, err)
	}

	_, err = r.execute(ctx, func(ctx context.Context) error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(id)"),
		})
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("user %s: %w", u.ID, domain.ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, r.translate("update user", err)
	}

	stored := *u
	return &stored, nil
}

// Delete removes a user and its email guard item in one transaction. The user
// is loaded first to learn which guard to delete.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.execute(ctx, func(ctx context.Context) error {
		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{Delete: &types.Delete{
					TableName:           aws.String(r.table),
					Key:                 idKey(id.String()),
					ConditionExpression: aws.String("attribute_exists(id)"),
				}},
				{Delete: &types.Delete{
					TableName: aws.String(r.table),
					Key:       idKey(guardKey(u.Email)),
				}},
			},
		})
		if isTransactionConditionFailure(err) {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return err
	})
	if err != nil {
		return r.translate("delete user", err)
	}
	return nil
}

// Name identifies this adapter in health reports.
func (r *UserRepository) Name() string {
	return checkerName
}

// HealthCheck probes the table with DescribeTable. The breaker state is
// consulted first so an open circuit reports failure without a network call.
func (r *UserRepository) HealthCheck(ctx context.Context) error {
	if err := awsclient.BreakerHealth(checkerName, r.breaker); err != nil {
		return err
	}
	_, err := r.breaker.Execute(func() (struct{}, error) {
		_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(r.table),
		})
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}
	return nil
}

// execute runs op through the circuit breaker.
func (r *UserRepository) execute(ctx context.Context, op func(ctx context.Context) error) (struct{}, error) {
	return r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, op(ctx)
	})
}

// translate maps untranslated backend failures onto the domain taxonomy.
// Errors already carrying a domain sentinel pass through unchanged.
func (r *UserRepository) translate(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: circuit open: %w", op, domain.ErrUnavailable)
	}
	r.logger.Error("dynamodb call failed",
		slog.String("operation", op),
		slog.String("table", r.table),
		slog.Any("error", err),
	)
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUnavailable)
}

// isTransactionConditionFailure reports whether a TransactWriteItems error was
// caused by a failed condition check, as opposed to a transport fault.
func isTransactionConditionFailure(err error) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return false
	}
	for _, reason := range canceled.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
