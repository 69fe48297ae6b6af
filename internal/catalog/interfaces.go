package catalog

import (
	"context"
	"io/fs"
)

type Loader interface {
	Load(ctx context.Context, fsys fs.FS) (*Catalog, error)
}
