package secret

import (
	"context"
	"fmt"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
)

// Client is the subset of the Secret Manager client used to read secrets.
type Client interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Latest returns the payload of the latest version of secretName.
func Latest(ctx context.Context, client Client, projectID string, secretName string) ([]byte, error) {
	response, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", secretName, err)
	}
	return response.GetPayload().GetData(), nil
}
