// Package archive assembles a will and its attachments into a ZIP download,
// degrading to the plain will text when the archive cannot be produced.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"willtank/internal/logger"
)

const (
	AttachmentsDir = "attachments/"
	VideoReadme    = "video_testimony/README.txt"

	ContentTypeZip  = "application/zip"
	ContentTypeText = "text/plain; charset=utf-8"

	// BasicDownloadMessage tells the user only the will text was delivered.
	BasicDownloadMessage = "basic download complete (attachments not included)"
)

// ErrTooLarge is returned when the archive would exceed the configured size.
var ErrTooLarge = errors.New("package exceeds maximum size")

// Document is an attachment to include.
type Document struct {
	FileName string
	Key      string
	MimeType string
}

// Fetcher loads an attachment's bytes.
type Fetcher interface {
	Fetch(ctx context.Context, doc Document) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, doc Document) (io.ReadCloser, error)

func (f FetcherFunc) Fetch(ctx context.Context, doc Document) (io.ReadCloser, error) {
	return f(ctx, doc)
}

// Input is everything needed to build a package.
type Input struct {
	Title     string
	Content   string
	Documents []Document
	HasVideo  bool
	VideoRef  string
}

// Result lists which attachment entries made it into the archive.
type Result struct {
	WillFile    string
	Included    []string
	Unavailable []string
}

// Package is a ready-to-send download.
type Package struct {
	FileName    string
	ContentType string
	Body        []byte
	Fallback    bool
	Message     string
	Result      *Result
}

// Builder writes archives.
type Builder struct {
	// MaxBytes caps the uncompressed size of attachments; zero means no cap.
	MaxBytes int64
	now      func() time.Time
}

// NewBuilder returns a Builder with the given size cap.
func NewBuilder(maxBytes int64) *Builder {
	return &Builder{MaxBytes: maxBytes, now: time.Now}
}

// Build writes the ZIP to w. A failed attachment fetch is replaced by a
// placeholder entry; only writer failures, cancellation and the size cap
// abort the build.
func (b *Builder) Build(ctx context.Context, w io.Writer, in Input, fetcher Fetcher) (*Result, error) {
	zw := zip.NewWriter(w)
	res := &Result{WillFile: WillFileName(in.Title)}
	log := logger.FromContext(ctx)

	if err := b.writeEntry(zw, res.WillFile, []byte(in.Content)); err != nil {
		return nil, err
	}

	var total int64
	used := map[string]int{}
	for _, doc := range in.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := uniqueName(used, safeEntryName(doc.FileName))
		data, err := b.fetch(ctx, fetcher, doc)
		if err != nil {
			log.Warn("attachment unavailable, writing placeholder", "file", doc.FileName, "error", err)
			placeholder := fmt.Sprintf("The attachment %q could not be retrieved when this package was created.\nReason: %v\n", doc.FileName, err)
			entry := AttachmentsDir + name + ".unavailable.txt"
			if err := b.writeEntry(zw, entry, []byte(placeholder)); err != nil {
				return nil, err
			}
			res.Unavailable = append(res.Unavailable, entry)
			continue
		}

		total += int64(len(data))
		if b.MaxBytes > 0 && total > b.MaxBytes {
			return nil, ErrTooLarge
		}
		entry := AttachmentsDir + name
		if err := b.writeEntry(zw, entry, data); err != nil {
			return nil, err
		}
		res.Included = append(res.Included, entry)
	}

	if in.HasVideo {
		readme := "A video testimony was recorded for this will.\n" +
			"The video is not embedded in this package; it remains available from your WillTank account.\n"
		if in.VideoRef != "" {
			readme += "Reference: " + in.VideoRef + "\n"
		}
		if err := b.writeEntry(zw, VideoReadme, []byte(readme)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return res, nil
}

func (b *Builder) fetch(ctx context.Context, fetcher Fetcher, doc Document) ([]byte, error) {
	rc, err := fetcher.Fetch(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if b.MaxBytes > 0 {
		r = io.LimitReader(rc, b.MaxBytes+1)
	}
	return io.ReadAll(r)
}

func (b *Builder) writeEntry(zw *zip.Writer, name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: b.now()}
	fw, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Assemble produces the rich ZIP package, or the will text alone when the
// archive cannot be built.
func (b *Builder) Assemble(ctx context.Context, in Input, fetcher Fetcher) *Package {
	var buf bytes.Buffer
	res, err := b.Build(ctx, &buf, in, fetcher)
	if err == nil {
		return &Package{
			FileName:    strings.TrimSuffix(res.WillFile, ".txt") + ".zip",
			ContentType: ContentTypeZip,
			Body:        buf.Bytes(),
			Result:      res,
		}
	}

	logger.FromContext(ctx).Error("package assembly failed, falling back to plain text", "error", err)
	return Fallback(in)
}

// Fallback returns the plain text tier.
func Fallback(in Input) *Package {
	return &Package{
		FileName:    WillFileName(in.Title),
		ContentType: ContentTypeText,
		Body:        []byte(in.Content),
		Fallback:    true,
		Message:     BasicDownloadMessage,
	}
}

// WillFileName derives the text file name from the will title.
func WillFileName(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "will"
	}
	return name + ".txt"
}

func safeEntryName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "document"
	}
	return name
}

// uniqueName numbers repeats as "name (2).ext" and skips any candidate
// already taken, including names that arrived with a number.
func uniqueName(used map[string]int, name string) string {
	ext := path.Ext(name)
	candidate := name
	for n := used[name] + 1; used[candidate] > 0; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	}
	used[name]++
	if candidate != name {
		used[candidate]++
	}
	return candidate
}
