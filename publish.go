package douyin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest video the client will upload.
const MaxUploadSize = 100 << 20

// sniffLen is how much of the upload is inspected to detect its format.
const sniffLen = 3072

var acceptedVideoTypes = []string{"video/mp4", "video/quicktime"}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// PublishFile uploads the video at path with the given title.
func (c *Client) PublishFile(ctx context.Context, path, title string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("publish: %w: %s is a directory", ErrInvalidArgument, path)
	}
	if info.Size() > MaxUploadSize {
		return fmt.Errorf("publish: %w: %s is %d bytes, limit %d", ErrInvalidArgument, path, info.Size(), MaxUploadSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	defer f.Close()

	return c.PublishVideo(ctx, title, filepath.Base(path), f)
}

// PublishVideo streams r to the publish endpoint as a multipart form with the
// fields data, token and title.
func (c *Client) PublishVideo(ctx context.Context, title, filename string, r io.Reader) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("publish: %w: title is required", ErrInvalidArgument)
	}
	token, err := c.requireToken()
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if filename == "" {
		filename = "video.mp4"
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("publish: read video: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return fmt.Errorf("publish: %w: empty video", ErrInvalidArgument)
	}

	mt := mimetype.Detect(head)
	if !isAcceptedVideo(mt) {
		return fmt.Errorf("publish: %w: %s", ErrUnsupportedFormat, mt.String())
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	body := io.MultiReader(bytes.NewReader(head), r)

	writeErr := make(chan error, 1)
	go func() {
		err := writePublishForm(mw, token, title, filename, mt.String(), body)
		pw.CloseWithError(err)
		writeErr <- err
	}()

	var resp actionResponse
	callErr := c.call(ctx, http.MethodPost, c.endpoints.Publish, nil, pr, mw.FormDataContentType(), &resp)
	pr.Close()

	if werr := <-writeErr; werr != nil && errors.Is(werr, ErrInvalidArgument) {
		return fmt.Errorf("publish: %w", werr)
	}
	if callErr != nil {
		return fmt.Errorf("publish %q: %w", title, callErr)
	}
	return nil
}

func writePublishForm(mw *multipart.Writer, token, title, filename, contentType string, video io.Reader) error {
	if err := mw.WriteField("token", token); err != nil {
		return err
	}
	if err := mw.WriteField("title", title); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="data"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	written, err := io.Copy(part, io.LimitReader(video, MaxUploadSize+1))
	if err != nil {
		return err
	}
	if written > MaxUploadSize {
		return fmt.Errorf("%w: video exceeds %d bytes", ErrInvalidArgument, MaxUploadSize)
	}
	return mw.Close()
}

func isAcceptedVideo(mt *mimetype.MIME) bool {
	for _, t := range acceptedVideoTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}
