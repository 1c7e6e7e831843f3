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
	"strings"
)

// Open opens a tiled raster from a local path or a remote object-storage
// URI (s3://bucket/key or gs://bucket/object). Remote sources are fetched
// to a local temp file once, since random-access tile reads need seekable
// storage; the temp file is removed when the returned Reader is closed.
func Open(uri string) (*Reader, error) {
	return OpenContext(context.Background(), uri)
}

// OpenContext is Open with an explicit context, used to bound or cancel the
// network fetch for remote sources.
func OpenContext(ctx context.Context, uri string) (*Reader, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return openS3(ctx, uri)
	case strings.HasPrefix(uri, "gs://"):
		return openGCS(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		return openLocal(strings.TrimPrefix(uri, "file://"))
	case strings.Contains(uri, "://"):
		scheme := uri[:strings.Index(uri, "://")]
		return nil, fmt.Errorf("raster: unsupported source scheme %q", scheme)
	default:
		return openLocal(uri)
	}
}
