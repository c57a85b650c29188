// Backup and restore of database files to local paths, HTTP and S3 URLs.
package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nickyhof/SQLitePlus/sec"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// RemoteConfig holds settings for backup destinations. The zero value uses
// the AWS default credential chain and writes unsealed backups.
type RemoteConfig struct {
	Region    string
	Endpoint  string // custom S3-compatible endpoint, path-style addressing
	AccessKey string
	SecretKey string

	// Passphrase seals backups on write and opens them on restore.
	Passphrase string
}

// ErrInMemory is returned when backing up a database that has no file.
var ErrInMemory = errors.New("in-memory database has no file to back up")

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}

type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeLocal urlScheme = "local"
)

func detectScheme(path string) urlScheme {
	lowerPath := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lowerPath, "s3://"):
		return schemeS3
	case strings.HasPrefix(lowerPath, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lowerPath, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lowerPath, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

// Backup writes a consistent copy of the last committed state of the
// session's database to url. Uncommitted changes are not included.
func (s *Session) Backup(ctx context.Context, url string, cfg *RemoteConfig) error {
	if err := s.ready(); err != nil {
		return err
	}
	if isMemoryPath(s.path) {
		return s.fail(newError(KindBackup, ErrInMemory))
	}

	payload, err := snapshotFile(s.path)
	if err != nil {
		return s.fail(newError(KindBackup, err))
	}
	if cfg != nil && cfg.Passphrase != "" {
		if payload, err = sec.Seal(cfg.Passphrase, payload); err != nil {
			return s.fail(newError(KindBackup, err))
		}
	}
	if err := writeRemote(ctx, url, payload, cfg); err != nil {
		return s.fail(newError(KindBackup, err))
	}

	s.log.WithField("path", s.path).WithField("url", url).Debug("backup written")
	return nil
}

// Restore downloads the backup at url into the file dest, replacing it.
// Sealed backups need cfg.Passphrase.
func Restore(ctx context.Context, url, dest string, cfg *RemoteConfig) error {
	r, err := openRemoteReader(ctx, url, cfg)
	if err != nil {
		return newError(KindBackup, err)
	}
	payload, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return newError(KindBackup, fmt.Errorf("failed to read backup: %w", err))
	}

	if sec.IsSealed(payload) {
		passphrase := ""
		if cfg != nil {
			passphrase = cfg.Passphrase
		}
		if payload, err = sec.Open(passphrase, payload); err != nil {
			return newError(KindBackup, err)
		}
	}

	if err := replaceFile(dest, payload); err != nil {
		return newError(KindBackup, err)
	}
	return nil
}

// snapshotFile copies the committed database at path through a separate
// read-only connection, so the session's open transaction is not touched.
func snapshotFile(path string) ([]byte, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly|sqlite.OpenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot connection: %w", err)
	}
	defer conn.Close()

	dir, err := os.MkdirTemp("", "sqliteplus-backup-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "backup.db")
	err = sqlitex.ExecuteTransient(conn, "VACUUM INTO ?;", &sqlitex.ExecOptions{
		Args: []any{target},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy database: %w", err)
	}
	return os.ReadFile(target)
}

func replaceFile(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".restore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write restored file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write restored file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return nil
}

func localPath(url string) string {
	if detectScheme(url) == schemeFile {
		return url[len("file://"):]
	}
	return url
}

func openRemoteReader(ctx context.Context, url string, cfg *RemoteConfig) (io.ReadCloser, error) {
	switch detectScheme(url) {
	case schemeLocal, schemeFile:
		return osOpen(localPath(url))
	case schemeHTTP, schemeHTTPS:
		return openHTTPReader(ctx, url)
	case schemeS3:
		return openS3Reader(ctx, url, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", url)
	}
}

func writeRemote(ctx context.Context, url string, payload []byte, cfg *RemoteConfig) error {
	switch detectScheme(url) {
	case schemeLocal, schemeFile:
		w, err := osCreate(localPath(url))
		if err != nil {
			return fmt.Errorf("failed to create backup file: %w", err)
		}
		if _, err := w.Write(payload); err != nil {
			w.Close()
			return fmt.Errorf("failed to write backup file: %w", err)
		}
		return w.Close()
	case schemeHTTP, schemeHTTPS:
		return fmt.Errorf("HTTP/HTTPS does not support writing")
	case schemeS3:
		return putS3Object(ctx, url, payload, cfg)
	default:
		return fmt.Errorf("unsupported URL scheme: %s", url)
	}
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	client := &http.Client{Timeout: 5 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(url string) (bucket, key string, err error) {
	path := url[len("s3://"):]
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return bucket, key, nil
}

func newS3Client(ctx context.Context, cfg *RemoteConfig) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg != nil && cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg != nil && cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg != nil && cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(ctx context.Context, url string, cfg *RemoteConfig) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object: %w", err)
	}
	return resp.Body, nil
}

func putS3Object(ctx context.Context, url string, payload []byte, cfg *RemoteConfig) error {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// osOpen and osCreate are swapped in tests.
var osOpen = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

var osCreate = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
