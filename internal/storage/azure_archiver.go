package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"go-cane-vision/pkg/models"
)

type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureArchiver writes reports as JSON blobs partitioned by S2 cell and date
type AzureArchiver struct {
	client    blobUploader
	container string
	cellLevel int
}

func NewAzureArchiver(accountName, accountKey, container string, cellLevel int) (*AzureArchiver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureArchiver{client: client, container: container, cellLevel: cellLevel}, nil
}

func (a *AzureArchiver) Name() string {
	return "azure"
}

func (a *AzureArchiver) Archive(ctx context.Context, report *models.AnalysisReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	contentType := "application/json"
	name := BlobName(report, a.cellLevel)
	_, err = a.client.UploadBuffer(ctx, a.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
		Metadata:    map[string]*string{"image_id": &report.ImageID},
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
