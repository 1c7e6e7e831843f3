/*
Copyright © 2024 the fastws authors.
This file is part of fastws.

fastws is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fastws is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fastws.  If not, see <http://www.gnu.org/licenses/>.
*/

package raster

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/cenkalti/backoff"
)

// openS3 fetches an s3://bucket/key raster to a local temp file and opens
// it, retrying transient failures with an exponential backoff, matching
// the retry posture the teacher repository applies to its own cloud
// storage fetches.
func openS3(ctx context.Context, uri string) (*Reader, error) {
	bucket, key, err := splitRemoteURI(uri, "s3://")
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "fastws-s3-*.fwr")
	if err != nil {
		return nil, fmt.Errorf("raster: creating temp file for %s: %w", uri, err)
	}
	tmpPath := tmp.Name()

	op := func() error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}
		sess, err := session.NewSession(aws.NewConfig())
		if err != nil {
			return err
		}
		out, err := s3.New(sess).GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		_, err = io.Copy(tmp, out.Body)
		return err
	}
	if err := backoff.Retry(op, remoteBackoff()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("raster: fetching %s: %w", uri, err)
	}
	tmp.Close()

	r, err := openLocal(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	r.src.(*fileSource).tempPath = tmpPath
	return r, nil
}

// openGCS fetches a gs://bucket/object raster to a local temp file and
// opens it.
func openGCS(ctx context.Context, uri string) (*Reader, error) {
	bucket, object, err := splitRemoteURI(uri, "gs://")
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "fastws-gcs-*.fwr")
	if err != nil {
		return nil, fmt.Errorf("raster: creating temp file for %s: %w", uri, err)
	}
	tmpPath := tmp.Name()

	op := func() error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(tmp, rc)
		return err
	}
	if err := backoff.Retry(op, remoteBackoff()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("raster: fetching %s: %w", uri, err)
	}
	tmp.Close()

	r, err := openLocal(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	r.src.(*fileSource).tempPath = tmpPath
	return r, nil
}

func remoteBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func splitRemoteURI(uri, prefix string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, prefix)
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("raster: malformed remote URI %q", uri)
	}
	return rest[:idx], rest[idx+1:], nil
}
