package repositories

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     zerolog.Logger
}

// OpenBadger opens the key-value store. Badger's own log lines are forwarded
// to the given zerolog logger, keeping only warnings and errors.
func OpenBadger(o BadgerOptions) (*badger.DB, error) {
	path := o.Path
	if o.InMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).
		WithInMemory(o.InMemory).
		WithLogger(badgerLogger{log: o.Logger.With().Str("component", "badger").Logger()}).
		WithSyncWrites(o.SyncWrites).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// NewBadgerStore wires every Badger repository onto db.
func NewBadgerStore(db *badger.DB) *Store {
	return &Store{
		Users:     NewBadgerUserRepository(db),
		Groups:    NewBadgerGroupRepository(db),
		Posts:     NewBadgerPostRepository(db),
		Comments:  NewBadgerCommentRepository(db),
		Follows:   NewBadgerFollowRepository(db),
		FlatPages: NewBadgerFlatPageRepository(db),
		Sessions:  NewBadgerSessionRepository(db),
	}
}

type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(string, ...interface{}) {}

func (l badgerLogger) Debugf(string, ...interface{}) {}
