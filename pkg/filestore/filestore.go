package filestore

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/igolaizola/rapgen/pkg/filestore/local"
	"github.com/igolaizola/rapgen/pkg/filestore/s3"
)

type fs interface {
	Upload(ctx context.Context, name, contentType string, data []byte) error
}

// Store is the destination of the files produced for the user: the lyrics
// text and the exported cards.
type Store struct {
	fs     fs
	prefix string
	debug  bool
}

// Download hands the file over to the user by writing it to the store.
func (s *Store) Download(ctx context.Context, name, contentType string, data []byte) error {
	name = path.Join(s.prefix, path.Base(name))
	if err := s.fs.Upload(ctx, name, contentType, data); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	if s.debug {
		log.Printf("filestore: saved %s (%s, %d bytes)\n", name, contentType, len(data))
	}
	return nil
}

// New creates a store. Connection strings:
//
//	local: <folder>
//	s3:    <key>:<secret>@<bucket>.<region>[/<prefix>]
func New(typ, conn string, debug bool) (*Store, error) {
	var fs fs
	var prefix string
	switch typ {
	case "s3":
		split := strings.Split(conn, "@")
		if len(split) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 connection string %q", conn)
		}
		auth := strings.Split(split[0], ":")
		if len(auth) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 auth string %q", conn)
		}
		key := auth[0]
		secret := auth[1]
		location := split[1]
		if i := strings.Index(location, "/"); i >= 0 {
			prefix = strings.Trim(location[i+1:], "/")
			location = location[:i]
		}
		loc := strings.Split(location, ".")
		if len(loc) != 2 {
			return nil, fmt.Errorf("filestore: invalid s3 location string %q", conn)
		}
		bucket := loc[0]
		region := loc[1]
		candidate, err := s3.New(key, secret, region, bucket, debug)
		if err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
		fs = candidate
	case "local", "":
		if conn == "" {
			conn = "."
		}
		fs = local.New(conn, debug)
	default:
		return nil, fmt.Errorf("filestore: unknown file storage type %q", typ)
	}
	return &Store{fs: fs, prefix: prefix, debug: debug}, nil
}
