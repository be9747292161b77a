// Package storagemock provides a testify mock of storage.AwsS3.
package storagemock

import (
	"context"
	"strings"

	"foodgram/internal/utils/storage"

	"github.com/stretchr/testify/mock"
)

const PublicBase = "https://bucket.test/"

type AwsS3 struct {
	mock.Mock
}

var _ storage.AwsS3 = (*AwsS3)(nil)

func (m *AwsS3) UploadFile(ctx context.Context, fileName string, file *storage.File, folder string, allowed ...string) (string, error) {
	args := m.Called(ctx, fileName, file, folder)
	return args.String(0), args.Error(1)
}

func (m *AwsS3) DeleteFile(ctx context.Context, objectKey string) error {
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

// Link helpers are deterministic so tests do not have to stub them.
func (m *AwsS3) GetPublicLinkKey(objectKey string) string {
	return PublicBase + objectKey
}

func (m *AwsS3) GetObjectKeyFromLink(link string) string {
	if !strings.HasPrefix(link, PublicBase) {
		return ""
	}
	return strings.TrimPrefix(link, PublicBase)
}
