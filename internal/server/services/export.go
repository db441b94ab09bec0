package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
	sc "github.com/kantina/canteen/internal/server/config"
	"github.com/kantina/canteen/internal/server/models"
	"github.com/kantina/canteen/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

var exportHeader = []string{"id", "created_at", "name", "company", "meal", "amount", "representative"}

// ExportResult describes an uploaded export.
type ExportResult struct {
	Key   string
	Count int
	URL   string
}

// ExportService publishes the invoiced entries as a CSV object in the
// configured S3-compatible bucket.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	now         func() time.Time
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, log logging.Logger) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		config:      cfg,
		log:         log.With("module", "exports"),
		now:         time.Now,
	}
}

// ExportKey returns a fresh object key under the day's export prefix.
func ExportKey(d time.Time) string {
	return fmt.Sprintf("exports/invoiced/%04d/%02d/%02d/%s.csv", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ExportService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// WriteEntriesCSV renders list with a header row.
func WriteEntriesCSV(buf *bytes.Buffer, list []*models.Entry) error {
	w := csv.NewWriter(buf)
	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range list {
		if err := w.Write([]string{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Name,
			e.Company,
			e.Meal,
			e.Amount.StringFixed(2),
			e.Representative,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ExportInvoiced uploads every invoiced entry and returns a time-limited
// download link.
func (s *ExportService) ExportInvoiced(ctx context.Context, sess auth.SessionContext) (*ExportResult, error) {
	if err := requireApproved(sess); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Entries(s.db).List(ctx, models.StatusInvoiced)
	if err != nil {
		return nil, storeError("list invoiced", err)
	}

	var buf bytes.Buffer
	if err := WriteEntriesCSV(&buf, list); err != nil {
		return nil, fmt.Errorf("%w: render csv: %v", common.ErrorInternal, err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 config: %v", common.ErrorInternal, err)
	}

	bucket := s.config.S3Bucket
	key := ExportKey(s.now())

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return nil, fmt.Errorf("%w: upload export: %v", common.ErrorStore, err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ExportURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: presign export: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "invoiced entries exported", "key", key, "count", len(list), "user_id", sess.UserID)
	return &ExportResult{Key: key, Count: len(list), URL: req.URL}, nil
}
