package store

import (
	"context"
	"fmt"
	"time"

	"bookcatalogue/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backends lists the names accepted by Open.
var Backends = []string{"file", "memory", "sqlite", "postgres", "mongo", "s3"}

// Open creates the backend named by cfg.Backend.
//
// Supported backends:
//
//	"file"     - JSON documents in cfg.DataDir (default)
//	"memory"   - in-process, ephemeral
//	"sqlite"   - SQLite database at cfg.SQLitePath
//	"postgres" - catalogue_documents table at cfg.PostgresDSN
//	"mongo"    - one collection at cfg.MongoURI
//	"s3"       - objects under cfg.S3Prefix in cfg.S3Bucket
func Open(ctx context.Context, cfg config.Storage) (Backend, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(cfg.DataDir)
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		return openPostgres(ctx, cfg)
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.QueryTimeout)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires S3_BUCKET")
		}
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix, awsConfig(cfg), s3Options(cfg))
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: %v)", cfg.Backend, Backends)
	}
}

func openPostgres(ctx context.Context, cfg config.Storage) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", config.RedactDSN(cfg.PostgresDSN), err)
	}
	s, err := NewPostgresStore(ctx, pool, cfg.QueryTimeout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func awsConfig(cfg config.Storage) aws.Config {
	awsCfg := aws.Config{Region: cfg.S3Region}
	if cfg.AWSAccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Source:          "environment",
		}
		awsCfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		awsCfg.Credentials = aws.AnonymousCredentials{}
	}
	return awsCfg
}

// s3Options points the client at a custom endpoint such as MinIO.
func s3Options(cfg config.Storage) func(*s3.Options) {
	return func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}
}
