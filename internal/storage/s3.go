// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides the S3-compatible object storage gateway for
// product images. It wraps the AWS SDK v2 against a single bucket and
// switches to path-style addressing when a custom endpoint (MinIO, Ceph)
// is configured.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Options configures a Client.
type Options struct {
	Endpoint  string // empty means AWS
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Client is the object storage gateway for a single bucket.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New creates a storage client. Returns (nil, nil) if credentials or the
// bucket are missing, allowing the app to start without storage.
func New(opts Options) (*Client, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, nil
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("storage: region is required")
	}

	s3opts := s3.Options{
		Region:      opts.Region,
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		// Checksums only when the operation requires them; S3-compatible
		// servers reject the aws-chunked trailer encoding.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}
	if endpoint := strings.TrimRight(opts.Endpoint, "/"); endpoint != "" {
		s3opts.BaseEndpoint = aws.String(endpoint)
		s3opts.UsePathStyle = true
	}

	return &Client{
		s3:     s3.New(s3opts),
		bucket: opts.Bucket,
	}, nil
}

// Put stores data under key and returns the key.
func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return key, nil
}

// Get retrieves an object and its content type. Missing keys yield ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, string, error) {
	output, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, "", fmt.Errorf("s3 read body %s: %w", key, err)
	}

	contentType := aws.ToString(output.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// isNotFound matches both the typed NoSuchKey error and the bare 404
// codes some S3-compatible servers send instead.
func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
