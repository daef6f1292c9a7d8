package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/wage-advance-ledger/pkg/models"
)

func (s *Store) PutSecret(ctx context.Context, secret *models.SealedSecret) error {
	return s.putNew(ctx, s.Tables.Secrets, "ref", secret)
}

func (s *Store) GetSecret(ctx context.Context, ref string) (*models.SealedSecret, error) {
	var secret models.SealedSecret
	if err := s.getItem(ctx, s.Tables.Secrets, stringKey("ref", ref), &secret); err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", ref, err)
	}
	return &secret, nil
}

// DeleteSecret is idempotent.
func (s *Store) DeleteSecret(ctx context.Context, ref string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.Tables.Secrets),
		Key:       stringKey("ref", ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete secret %s: %w", ref, err)
	}
	return nil
}
