package infrastructure

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// NewAWSConfig builds the AWS configuration shared by the S3 and Athena
// clients. When roleARN is set the default credentials are exchanged for
// short-lived assumed-role credentials.
func NewAWSConfig(ctx context.Context, region string, endpointURL string, roleARN string, logger *log.Logger) (aws.Config, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if endpointURL != "" {
			logger.Println("Using custom aws endpoint: ", endpointURL)
			return aws.Endpoint{
				PartitionID:       "aws",
				URL:               endpointURL,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsconfig, err := config.LoadDefaultConfig(ctx, config.WithEndpointResolverWithOptions(customResolver), config.WithRegion(region))
	if err != nil {
		return aws.Config{}, err
	}

	if roleARN != "" {
		logger.Println("Assuming role: ", roleARN)
		stsClient := sts.NewFromConfig(awsconfig)
		provider := stscreds.NewAssumeRoleProvider(stsClient, roleARN)
		awsconfig.Credentials = aws.NewCredentialsCache(provider)
	}
	return awsconfig, nil
}
