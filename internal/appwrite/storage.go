package appwrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
)

// File is the metadata of a file stored in a bucket.
type File struct {
	ID             string `json:"$id"`
	BucketID       string `json:"bucketId"`
	Name           string `json:"name"`
	MimeType       string `json:"mimeType"`
	SizeOriginal   int64  `json:"sizeOriginal"`
	ChunksTotal    int    `json:"chunksTotal"`
	ChunksUploaded int    `json:"chunksUploaded"`
}

// InputFile describes the content of a file to upload.
type InputFile struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.Reader
}

// PreviewOptions controls the image transformation applied by FilePreviewURL.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// CreateFile uploads in to the bucket. Content larger than the client chunk
// size is sent in consecutive parts tagged with Content-Range; every part after
// the first carries the id Appwrite assigned to the upload.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID string, in InputFile) (*File, error) {
	if in.Body == nil {
		return nil, errors.New("create file: empty body")
	}

	body := in.Body
	size := in.Size
	if size <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("create file: read body: %w", err)
		}
		body = bytes.NewReader(data)
		size = int64(len(data))
	}

	if size <= c.chunkSize {
		return c.uploadPart(ctx, bucketID, fileID, in, body, "", "")
	}

	var (
		uploaded *File
		uploadID string
	)
	for offset := int64(0); offset < size; offset += c.chunkSize {
		end := offset + c.chunkSize
		if end > size {
			end = size
		}

		part := make([]byte, end-offset)
		if _, err := io.ReadFull(body, part); err != nil {
			return nil, fmt.Errorf("create file: read chunk at %d: %w", offset, err)
		}

		contentRange := fmt.Sprintf("bytes %d-%d/%d", offset, end-1, size)
		file, err := c.uploadPart(ctx, bucketID, fileID, in, bytes.NewReader(part), contentRange, uploadID)
		if err != nil {
			return nil, err
		}
		uploaded = file
		if uploadID == "" {
			uploadID = file.ID
		}
	}

	return uploaded, nil
}

func (c *Client) uploadPart(ctx context.Context, bucketID, fileID string, in InputFile, part io.Reader, contentRange, uploadID string) (*File, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("fileId", fileID); err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%s`, strconv.Quote(in.Name)))
	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)

	w, err := form.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(w, part); err != nil {
		return nil, fmt.Errorf("create file: copy content: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	req := request{
		method:      http.MethodPost,
		path:        "/storage/buckets/" + url.PathEscape(bucketID) + "/files",
		body:        &buf,
		contentType: form.FormDataContentType(),
		header:      http.Header{},
	}
	if contentRange != "" {
		req.header.Set("Content-Range", contentRange)
	}
	if uploadID != "" {
		req.header.Set("X-Appwrite-ID", uploadID)
	}

	var file File
	if _, err := c.do(ctx, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// FileViewURL returns the URL serving the file content unchanged.
func (c *Client) FileViewURL(bucketID, fileID string) string {
	return c.resourceURL(filePath(bucketID, fileID)+"/view", nil)
}

// FilePreviewURL returns the URL of a resized image preview of the file.
func (c *Client) FilePreviewURL(bucketID, fileID string, opts PreviewOptions) string {
	params := url.Values{}
	if opts.Width > 0 {
		params.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		params.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		params.Set("quality", strconv.Itoa(opts.Quality))
	}
	return c.resourceURL(filePath(bucketID, fileID)+"/preview", params)
}

func filePath(bucketID, fileID string) string {
	return "/storage/buckets/" + url.PathEscape(bucketID) + "/files/" + url.PathEscape(fileID)
}
