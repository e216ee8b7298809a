package domain

import "context"

// Store is the entity store: one repository per document type plus
// transactional grouping of writes.
type Store interface {
	Users() UserRepository
	Companies() CompanyRepository
	Providers() ProviderRepository
	Craftworkers() CraftworkerRepository
	Jobs() JobRepository
	Applications() ApplicationRepository

	// WithinTx runs fn against a Store bound to one transaction. A non-nil
	// error from fn rolls every write back. Calling WithinTx on a
	// transactional Store runs fn in the existing transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}
