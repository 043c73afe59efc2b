package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalStorage persists blobs on disk under a base directory and serves them
// through HMAC signed download tokens.
type LocalStorage struct {
	baseDir string
	signer  *SignedURLSigner
	urlBase string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// urlBase is the public route that resolves signed tokens, e.g. "/api/v1/blobs".
func NewLocalStorage(baseDir string, signer *SignedURLSigner, urlBase string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./blobs"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, signer: signer, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

// Put copies from reader into the target key.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	target := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("prepare blob directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create blob file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck
	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write blob stream: %w", err)
	}
	if size > 0 && written != size {
		return fmt.Errorf("write blob stream: short write %d of %d bytes", written, size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("commit blob file: %w", err)
	}
	return nil
}

// Get opens the stored blob for reading.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, nil, err
	}
	file, err := os.Open(s.resolve(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("open blob file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("stat blob file: %w", err)
	}
	return file, &Object{
		Key:          key,
		Size:         info.Size(),
		ContentType:  contentTypeFor(key),
		LastModified: info.ModTime().UTC(),
	}, nil
}

// List walks the directory tree and returns every key starting with prefix.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	prefix = strings.TrimPrefix(strings.ReplaceAll(prefix, "\\", "/"), "/")
	if strings.Contains(prefix, "..") {
		return nil, fmt.Errorf("blob prefix %q escapes the store", prefix)
	}
	root := s.baseDir
	if dir := path.Dir(prefix); dir != "." && dir != "/" {
		root = s.resolve(dir)
	}
	objects := make([]Object, 0)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Key:          key,
			Size:         info.Size(),
			ContentType:  contentTypeFor(key),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// SignedURL returns a download URL carrying a signed, expiring token.
func (s *LocalStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	key, err := CleanKey(key)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, err := os.Stat(s.resolve(key)); err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, ErrObjectNotFound
		}
		return "", time.Time{}, fmt.Errorf("stat blob file: %w", err)
	}
	token, expiresAt, err := s.signer.Generate(blobTokenSubject, key, ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s/%s", s.urlBase, url.PathEscape(token)), expiresAt, nil
}

// OpenSigned validates a token issued by SignedURL and opens the blob.
func (s *LocalStorage) OpenSigned(ctx context.Context, token string) (io.ReadCloser, *Object, error) {
	if s.signer == nil {
		return nil, nil, fmt.Errorf("signing secret missing")
	}
	subject, key, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, err
	}
	if subject != blobTokenSubject {
		return nil, nil, ErrTokenInvalid
	}
	return s.Get(ctx, key)
}

const blobTokenSubject = "blob"

func (s *LocalStorage) resolve(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
