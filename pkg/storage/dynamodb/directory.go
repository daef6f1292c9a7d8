package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/wage-advance-ledger/pkg/models"
)

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.getItem(ctx, s.Tables.Users, stringKey("id", userID), &user); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return &user, nil
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.putNew(ctx, s.Tables.Users, "id", user)
}

// ListUsersByEnterprise queries the enterprise/category index.
func (s *Store) ListUsersByEnterprise(ctx context.Context, entrepriseID string, category models.UserCategory) ([]models.User, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Users),
		IndexName:              aws.String(usersByEnterpriseIndex),
		KeyConditionExpression: aws.String("entreprise_id = :e AND category = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: entrepriseID},
			":c": &types.AttributeValueMemberS{Value: string(category)},
		},
	})
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	return users, nil
}

// GetEnterprise retrieves an enterprise by ID.
func (s *Store) GetEnterprise(ctx context.Context, entrepriseID string) (*models.Enterprise, error) {
	var enterprise models.Enterprise
	if err := s.getItem(ctx, s.Tables.Enterprises, stringKey("id", entrepriseID), &enterprise); err != nil {
		return nil, fmt.Errorf("failed to get enterprise %s: %w", entrepriseID, err)
	}
	return &enterprise, nil
}

func (s *Store) CreateEnterprise(ctx context.Context, enterprise *models.Enterprise) error {
	return s.putNew(ctx, s.Tables.Enterprises, "id", enterprise)
}

// GetEnterpriseToken retrieves the token owned by an enterprise.
func (s *Store) GetEnterpriseToken(ctx context.Context, entrepriseID string) (*models.EnterpriseToken, error) {
	var token models.EnterpriseToken
	if err := s.getItem(ctx, s.Tables.Tokens, stringKey("entreprise_id", entrepriseID), &token); err != nil {
		return nil, fmt.Errorf("failed to get token for enterprise %s: %w", entrepriseID, err)
	}
	return &token, nil
}

// CreateEnterpriseToken stores the token, one per enterprise.
func (s *Store) CreateEnterpriseToken(ctx context.Context, token *models.EnterpriseToken) error {
	return s.putNew(ctx, s.Tables.Tokens, "entreprise_id", token)
}
