package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// NewDynamoStorage - opens a DynamoDB client and checks that the sessions table exists.
// A non-empty endpoint points the client at a local DynamoDB.
func NewDynamoStorage(ctx context.Context, region, endpoint, table string) (dynamodbiface.DynamoDBAPI, error) {
	awsConfig := &aws.Config{
		Region: aws.String(region),
	}

	if endpoint != "" {
		awsConfig.Endpoint = aws.String(endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create aws session: %w", err)
	}

	client := dynamodb.New(sess)

	if _, err = client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}); err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}

	return client, nil
}
