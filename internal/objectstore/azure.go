// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AzureStore serves objects from one Azure Blob Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

var _ Store = (*AzureStore)(nil)

// NewAzureStore creates a store for container using the default Azure credential chain.
func NewAzureStore(ctx context.Context, container string, cfg AzureConfig) (*AzureStore, error) {
	if cfg.ServiceURL == "" {
		return nil, errors.New("azure service url is not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("loading Azure credentials: %w", err)
	}
	client, err := azblob.NewClient(cfg.ServiceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: container}, nil
}

// Head fetches the blob properties.
func (s *AzureStore) Head(ctx context.Context, location string) (ObjectMeta, error) {
	props, err := s.client.ServiceClient().
		NewContainerClient(s.container).
		NewBlobClient(location).
		GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return ObjectMeta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, s.container, location)
		}
		return ObjectMeta{}, fmt.Errorf("get properties %s/%s: %w", s.container, location, err)
	}
	meta := ObjectMeta{Location: location}
	if props.ContentLength != nil {
		meta.Size = *props.ContentLength
	}
	if props.LastModified != nil {
		meta.LastModified = *props.LastModified
	}
	return meta, nil
}

// GetRange downloads [start, end) of the blob.
func (s *AzureStore) GetRange(ctx context.Context, location string, start, end int64) ([]byte, error) {
	if end <= start {
		return []byte{}, nil
	}
	ctx, span := tracer.Start(ctx, "objectstore.azureGetRange",
		trace.WithAttributes(
			attribute.String("container", s.container),
			attribute.String("key", location),
			attribute.Int64("start", start),
			attribute.Int64("end", end),
		),
	)
	defer span.End()

	resp, err := s.client.DownloadStream(ctx, s.container, location, &azblob.DownloadStreamOptions{
		Range: azblob.HTTPRange{Offset: start, Count: end - start},
	})
	if err != nil {
		span.RecordError(err)
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.container, location)
		}
		return nil, fmt.Errorf("download %s/%s [%d, %d): %w", s.container, location, start, end, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read %s/%s body: %w", s.container, location, err)
	}
	recordRead(ctx, "azure", int64(len(data)))
	return data, nil
}

// List pages through the flat blob listing under prefix.
func (s *AzureStore) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	var out []ObjectMeta
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.container, prefix, err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil || strings.HasSuffix(*item.Name, "/") {
				continue
			}
			meta := ObjectMeta{Location: *item.Name}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					meta.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					meta.LastModified = *item.Properties.LastModified
				}
			}
			out = append(out, meta)
		}
	}
	return out, nil
}
