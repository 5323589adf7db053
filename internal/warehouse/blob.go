package warehouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// BlobMedium keeps snapshot files in an Azure Storage blob container. The
// service commits an upload atomically, and uploads are conditional on the
// blob not existing yet.
type BlobMedium struct {
	client     *azblob.Client
	accountURL string
	container  string
}

// NewBlobMedium connects to accountURL with DefaultAzureCredential.
func NewBlobMedium(accountURL, containerName string) (*BlobMedium, error) {
	if strings.TrimSpace(accountURL) == "" {
		return nil, errors.New("blob medium requires an account URL")
	}
	if strings.TrimSpace(containerName) == "" {
		return nil, errors.New("blob medium requires a container name")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobMedium{client: client, accountURL: accountURL, container: containerName}, nil
}

func (m *BlobMedium) Location(name string) string {
	return strings.TrimSuffix(m.accountURL, "/") + "/" + m.container + "/" + name
}

func (m *BlobMedium) Put(ctx context.Context, name string, data []byte) error {
	ifNoneMatch := azcore.ETagAny
	_, err := m.client.UploadBuffer(ctx, m.container, name, data, &azblob.UploadBufferOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &ifNoneMatch},
		},
	})
	if bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return fmt.Errorf("%s: %w", m.Location(name), ErrExists)
	}
	return err
}

func (m *BlobMedium) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := m.client.DownloadStream(ctx, m.container, name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}
