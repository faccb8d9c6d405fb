package local

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	errRootRequired = errors.New("uploads root is required")

	resourceRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

	videoExtensions = map[string]bool{
		".mp4":  true,
		".webm": true,
		".mov":  true,
	}
)

// Store writes uploaded media under a local root, one subdirectory per
// resource kind (products, reviews, sliders, ...).
type Store struct {
	root        string
	maxBytes    int64
	imageWidth  int
	imageHeight int
	jpegQuality int
}

// Options configures the local store.
type Options struct {
	Root        string
	MaxUploadMB int
	ImageWidth  int
	ImageHeight int
	JPEGQuality int
}

// New ensures the root directory exists and returns the store.
func New(opts Options) (*Store, error) {
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, errRootRequired
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir uploads root %q: %w", root, err)
	}

	maxMB := opts.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	return &Store{
		root:        root,
		maxBytes:    int64(maxMB) << 20,
		imageWidth:  opts.ImageWidth,
		imageHeight: opts.ImageHeight,
		jpegQuality: quality,
	}, nil
}

// Root returns the directory the store writes into, for static file serving.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// MaxBytes reports the per-file upload ceiling.
func (s *Store) MaxBytes() int64 {
	if s == nil {
		return 0
	}
	return s.maxBytes
}

// IsVideo reports whether the filename carries a recognized video extension.
func IsVideo(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SaveUpload persists one multipart file under <root>/<resource>/ and returns
// the public URL path (always /uploads/... with forward slashes). Images are
// re-encoded to bounded JPEG; videos are stored as-is.
func (s *Store) SaveUpload(resource string, header *multipart.FileHeader) (string, error) {
	if s == nil {
		return "", errors.New("store not initialized")
	}
	if header == nil {
		return "", errors.New("file header is required")
	}
	if !resourceRe.MatchString(resource) {
		return "", fmt.Errorf("invalid upload resource %q", resource)
	}
	if header.Size > s.maxBytes {
		return "", fmt.Errorf("file %q exceeds the %d byte upload limit", header.Filename, s.maxBytes)
	}

	dir := filepath.Join(s.root, resource)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", header.Filename, err)
	}
	defer src.Close()

	name := uuid.NewString()
	if IsVideo(header.Filename) {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		dst := filepath.Join(dir, name+ext)
		if err := writeStream(dst, src); err != nil {
			return "", err
		}
		return publicPath(resource, name+ext), nil
	}

	dst, err := s.writeNormalizedImage(dir, name, src)
	if err != nil {
		return "", err
	}
	return publicPath(resource, filepath.Base(dst)), nil
}

// Remove deletes a previously stored file given its public URL path. Paths
// outside the root are rejected.
func (s *Store) Remove(publicURL string) error {
	if s == nil {
		return errors.New("store not initialized")
	}
	rel := strings.TrimPrefix(publicURL, "/uploads/")
	rel = strings.TrimPrefix(rel, "uploads/")
	if rel == "" || rel == publicURL {
		return fmt.Errorf("not an uploads path: %q", publicURL)
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(s.root) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(full)+string(filepath.Separator), cleanRoot) {
		return fmt.Errorf("path escapes uploads root: %q", publicURL)
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", full, err)
	}
	return nil
}

// writeNormalizedImage decodes, bounds and re-encodes the image as JPEG. The
// original bytes are never written to disk.
func (s *Store) writeNormalizedImage(dir, name string, src io.Reader) (string, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if s.imageWidth > 0 && s.imageHeight > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > s.imageWidth || bounds.Dy() > s.imageHeight {
			img = imaging.Fit(img, s.imageWidth, s.imageHeight, imaging.Lanczos)
		}
	}

	dst := filepath.Join(dir, name+".jpg")
	if err := imaging.Save(img, dst, imaging.JPEGQuality(s.jpegQuality)); err != nil {
		return "", fmt.Errorf("save image %q: %w", dst, err)
	}
	return dst, nil
}

func writeStream(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write %q: %w", dst, err)
	}
	return nil
}

func publicPath(resource, filename string) string {
	return path.Join("/uploads", resource, filename)
}
