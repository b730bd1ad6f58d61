package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

// Download is a streamed file from the backend. The caller must close Body.
type Download struct {
	Filename      string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// UploadDocument attaches a document to a record (POST /{resource}/{id}/documents)
func (c *Client) UploadDocument(ctx context.Context, token string, resource model.Resource, id, filename string, file io.Reader) error {
	target := c.endpoint(nil, resource.String(), id, "documents")
	return c.upload(ctx, "upload document", target, token, filename, file)
}

// UploadReceipt attaches a receipt to a payment (POST /payments/{id}/receipt)
func (c *Client) UploadReceipt(ctx context.Context, token, paymentID, filename string, file io.Reader) error {
	target := c.endpoint(nil, model.ResourcePayments.String(), paymentID, "receipt")
	return c.upload(ctx, "upload receipt", target, token, filename, file)
}

func (c *Client) upload(ctx context.Context, op, target, token, filename string, file io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, target, token, &buf)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	return nil
}

// DownloadReceipt streams a payment receipt (GET /payments/{id}/download-receipt)
func (c *Client) DownloadReceipt(ctx context.Context, token, paymentID string) (*Download, error) {
	const op = "download receipt"
	target := c.endpoint(nil, model.ResourcePayments.String(), paymentID, "download-receipt")

	req, err := c.newRequest(ctx, http.MethodGet, target, token, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Download{
		Filename:      FilenameFromDisposition(resp.Header.Get("Content-Disposition"), "receipt-"+paymentID),
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// FilenameFromDisposition extracts the filename parameter of a
// Content-Disposition header, falling back when it is absent or unparsable.
func FilenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return fallback
	}
	// Strip any directory components the server may have included
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return fallback
	}
	return name
}
