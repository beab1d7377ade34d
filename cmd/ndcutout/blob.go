package main

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/janelia-flyem/ndio/codec"
	"github.com/janelia-flyem/ndio/ndio"
)

// splitObjectRef separates an object reference into a bucket URL and key.
// References may be bucket URLs with a key path, e.g., "gs://bucket/dir/vol.npy",
// "s3://bucket/vol.npy?region=us-east-2" or "file:///tmp/vol.npy", or plain file paths.
func splitObjectRef(ref string) (bucketURL, key string, err error) {
	if !strings.Contains(ref, "://") {
		abspath, err := filepath.Abs(ref)
		if err != nil {
			return "", "", err
		}
		ref = "file://" + filepath.ToSlash(abspath)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", fmt.Errorf("bad object reference %q: %v", ref, err)
	}
	switch u.Scheme {
	case "file":
		dir, file := path.Split(u.Path)
		if file == "" {
			return "", "", fmt.Errorf("no file name in object reference %q", ref)
		}
		u.Path = strings.TrimSuffix(dir, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		key = file
	default:
		key = strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return "", "", fmt.Errorf("no object key in reference %q", ref)
		}
		u.Path = ""
	}
	return u.String(), key, nil
}

// openObject opens the bucket holding ref and returns it with the object key.
func openObject(ctx context.Context, ref string) (*blob.Bucket, string, error) {
	bucketURL, key, err := splitObjectRef(ref)
	if err != nil {
		return nil, "", err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		ndio.Errorf("Can't open bucket reference @ %q: %v\n", bucketURL, err)
		return nil, "", err
	}
	return bucket, key, nil
}

// writeVolume stores v as a .npy object.
func writeVolume(ctx context.Context, ref string, v *ndio.Volume) error {
	bucket, key, err := openObject(ctx, ref)
	if err != nil {
		return err
	}
	defer bucket.Close()

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return err
	}
	if err := codec.WriteNPY(w, v); err != nil {
		w.Close()
		return fmt.Errorf("unable to write %s: %v", ref, err)
	}
	return w.Close()
}

// readVolume loads a .npy object.
func readVolume(ctx context.Context, ref string) (*ndio.Volume, error) {
	bucket, key, err := openObject(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer bucket.Close()

	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("no object found at %s", ref)
		}
		return nil, err
	}
	defer r.Close()
	return codec.ReadNPY(r)
}
