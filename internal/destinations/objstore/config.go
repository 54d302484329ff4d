package objstore

import (
	"github.com/runreveal/lib/loader"
)

func init() {
	loader.Register("s3", func() loader.Builder[BlobLike] {
		return &S3Config{}
	})
	loader.Register("dir", func() loader.Builder[BlobLike] {
		return &DirConfig{}
	})
}

func (s S3Config) Configure() (BlobLike, error) {
	return NewS3(s)
}

func (d DirConfig) Configure() (BlobLike, error) {
	return NewDir(d)
}
