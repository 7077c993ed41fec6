package archive

import (
	"context"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

// Store is the durable side of the archive. Append adds one record to
// the collection; List returns every record in append order.
type Store interface {
	Append(ctx context.Context, rec mb.ArchiveRecord) error
	List(ctx context.Context) ([]mb.ArchiveRecord, error)
}
