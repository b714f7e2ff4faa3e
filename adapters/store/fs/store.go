package storefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-pdfgen/pdfgen"
)

// SignedURLInput describes a signed URL request.
type SignedURLInput struct {
	BaseURL   string
	Key       string
	ExpiresAt time.Time
}

// SignedURLSigner signs artifact URLs.
type SignedURLSigner interface {
	SignURL(input SignedURLInput) (string, error)
}

// Store provides filesystem-backed storage for generated PDFs.
type Store struct {
	Root    string
	BaseURL string
	Signer  SignedURLSigner
	Now     func() time.Time
}

// NewStore creates a filesystem-backed artifact store.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Put stores an artifact on disk.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, meta pdfgen.ArtifactMeta) (pdfgen.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return pdfgen.ArtifactRef{}, pdfgen.NewError(pdfgen.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return pdfgen.ArtifactRef{}, pdfgen.NewError(pdfgen.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return pdfgen.ArtifactRef{}, pdfgen.NewError(pdfgen.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return pdfgen.ArtifactRef{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pdfgen.ArtifactRef{}, err
	}

	tmp, err := os.CreateTemp(dir, ".pdfgen-*")
	if err != nil {
		return pdfgen.ArtifactRef{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return pdfgen.ArtifactRef{}, err
	}
	if err := tmp.Sync(); err != nil {
		return pdfgen.ArtifactRef{}, err
	}
	if err := tmp.Close(); err != nil {
		return pdfgen.ArtifactRef{}, err
	}

	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return pdfgen.ArtifactRef{}, err
	}

	meta.Size = size
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now()
	}
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}

	if err := s.writeMeta(pathOnDisk, meta); err != nil {
		return pdfgen.ArtifactRef{}, err
	}

	return pdfgen.ArtifactRef{Key: key, Meta: meta}, nil
}

// Open reads an artifact from disk.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, pdfgen.ArtifactMeta, error) {
	_ = ctx
	if s == nil {
		return nil, pdfgen.ArtifactMeta{}, pdfgen.NewError(pdfgen.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return nil, pdfgen.ArtifactMeta{}, pdfgen.NewError(pdfgen.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return nil, pdfgen.ArtifactMeta{}, pdfgen.NewError(pdfgen.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return nil, pdfgen.ArtifactMeta{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pdfgen.ArtifactMeta{}, pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, pdfgen.ArtifactMeta{}, err
	}

	meta := s.readMeta(pathOnDisk)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = info.ModTime()
			}
		}
	}

	return file, meta, nil
}

// Delete removes an artifact and its metadata sidecar.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	if s == nil {
		return pdfgen.NewError(pdfgen.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	_ = os.Remove(pathOnDisk)
	_ = os.Remove(metaPath(pathOnDisk))
	return nil
}

// SignedURL generates a signed URL when configured.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	if s == nil {
		return "", pdfgen.NewError(pdfgen.KindInternal, "store is nil", nil)
	}
	if s.Signer == nil || s.BaseURL == "" {
		return "", pdfgen.NewError(pdfgen.KindNotImpl, "signed URLs not configured", nil)
	}
	if ttl <= 0 {
		return "", pdfgen.NewError(pdfgen.KindValidation, "signed URL TTL is required", nil)
	}
	if key == "" {
		return "", pdfgen.NewError(pdfgen.KindValidation, "artifact key is required", nil)
	}
	expires := s.now().Add(ttl)
	return s.Signer.SignURL(SignedURLInput{
		BaseURL:   strings.TrimRight(s.BaseURL, "/"),
		Key:       key,
		ExpiresAt: expires,
	})
}

// SweepExpired removes artifacts whose metadata records an expiry before the
// cutoff. Artifacts without a sidecar are left untouched.
func (s *Store) SweepExpired(ctx context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, pdfgen.NewError(pdfgen.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return 0, pdfgen.NewError(pdfgen.KindValidation, "store root is required", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return 0, err
	}

	removed := 0
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) {
			return nil
		}
		meta := s.readMeta(p)
		if meta.ExpiresAt.IsZero() || meta.ExpiresAt.After(before) {
			return nil
		}
		_ = os.Remove(p)
		_ = os.Remove(metaPath(p))
		removed++
		return nil
	})
	if walkErr != nil {
		return removed, walkErr
	}
	return removed, nil
}

func (s *Store) resolvePath(key string) (string, error) {
	clean := path.Clean("/" + key)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", pdfgen.NewError(pdfgen.KindValidation, "invalid artifact key", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", pdfgen.NewError(pdfgen.KindValidation, "artifact key escapes root", nil)
	}
	return target, nil
}

func (s *Store) writeMeta(pathOnDisk string, meta pdfgen.ArtifactMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	dir := filepath.Dir(pathOnDisk)
	tmp, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), metaPath(pathOnDisk))
}

func (s *Store) readMeta(pathOnDisk string) pdfgen.ArtifactMeta {
	data, err := os.ReadFile(metaPath(pathOnDisk))
	if err != nil {
		return pdfgen.ArtifactMeta{}
	}
	var meta pdfgen.ArtifactMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return pdfgen.ArtifactMeta{}
	}
	return meta
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

const metaSuffix = ".meta.json"

func metaPath(pathOnDisk string) string {
	return pathOnDisk + metaSuffix
}
