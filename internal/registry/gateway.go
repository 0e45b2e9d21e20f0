package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
)

const (
	classPrefix = "class/"
	tokenPrefix = "token/"
	readyKey    = "meta/ready"
)

// Registration is the stored record of one published class.
type Registration struct {
	Token        lifecycle.Token `json:"token"`
	ClassID      string          `json:"class_id"`
	Description  string          `json:"description,omitempty"`
	PID          int             `json:"pid"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// ReadyRecord is stored when the host announces readiness.
type ReadyRecord struct {
	PID     int       `json:"pid"`
	ReadyAt time.Time `json:"ready_at"`
}

var _ lifecycle.Gateway = (*Badger)(nil)

// Register publishes class. A record left behind by another process is
// replaced; a record owned by this process is an error.
func (b *Badger) Register(ctx context.Context, class domain.Class) (lifecycle.Token, error) {
	if err := b.check(ctx); err != nil {
		return "", err
	}

	reg := Registration{
		Token:        lifecycle.Token(domain.NewRegistrationID()),
		ClassID:      class.ID,
		Description:  class.Description,
		PID:          b.pid,
		RegisteredAt: time.Now().UTC(),
	}
	value, err := json.Marshal(reg)
	if err != nil {
		return "", fmt.Errorf("registry: encode registration: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		old, err := getRegistration(txn, class.ID)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		case old.PID == b.pid:
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, class.ID)
		default:
			b.logger.Warn("replacing stale registration",
				"class", class.ID,
				"stale_pid", old.PID)
			if err := txn.Delete([]byte(tokenPrefix + string(old.Token))); err != nil {
				return err
			}
		}

		if err := txn.Set([]byte(classPrefix+class.ID), value); err != nil {
			return err
		}
		return txn.Set([]byte(tokenPrefix+string(reg.Token)), []byte(class.ID))
	})
	if err != nil {
		return "", fmt.Errorf("registry: register %s: %w", class.ID, err)
	}

	b.logger.Info("class registered", "class", class.ID, "token", string(reg.Token))
	return reg.Token, nil
}

// Unregister revokes a registration. When the last class is gone the
// readiness record is removed too.
func (b *Badger) Unregister(ctx context.Context, token lifecycle.Token) error {
	if err := b.check(ctx); err != nil {
		return err
	}

	var classID string
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenPrefix + string(token)))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUnknownToken
			}
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		classID = string(raw)

		if err := txn.Delete(item.KeyCopy(nil)); err != nil {
			return err
		}

		reg, err := getRegistration(txn, classID)
		if err == nil && reg.Token == token {
			if err := txn.Delete([]byte(classPrefix + classID)); err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if !hasPrefix(txn, classPrefix) {
			if err := txn.Delete([]byte(readyKey)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("registry: unregister %s: %w", token, err)
	}

	b.logger.Info("class unregistered", "class", classID)
	return nil
}

// AnnounceReady records that every class of this process is published.
func (b *Badger) AnnounceReady(ctx context.Context) error {
	if err := b.check(ctx); err != nil {
		return err
	}

	value, err := json.Marshal(ReadyRecord{PID: b.pid, ReadyAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("registry: encode ready record: %w", err)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(readyKey), value)
	}); err != nil {
		return fmt.Errorf("registry: announce ready: %w", err)
	}

	b.logger.Info("host announced ready", "pid", b.pid)
	return nil
}

// Classes returns every registration ordered by class ID.
func (b *Badger) Classes(ctx context.Context) ([]Registration, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	var out []Registration
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(classPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var reg Registration
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &reg)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, reg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry: list classes: %w", err)
	}
	return out, nil
}

// Lookup returns the registration of one class.
func (b *Badger) Lookup(ctx context.Context, classID string) (*Registration, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	var reg *Registration
	err := b.db.View(func(txn *badger.Txn) error {
		r, err := getRegistration(txn, classID)
		if err != nil {
			return err
		}
		reg = r
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrClassNotFound.WithDetails(classID)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: lookup %s: %w", classID, err)
	}
	return reg, nil
}

// Ready returns the readiness record.
func (b *Badger) Ready(ctx context.Context) (*ReadyRecord, error) {
	if err := b.check(ctx); err != nil {
		return nil, err
	}

	var rec ReadyRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(readyKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read ready record: %w", err)
	}
	return &rec, nil
}

func (b *Badger) check(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func getRegistration(txn *badger.Txn, classID string) (*Registration, error) {
	item, err := txn.Get([]byte(classPrefix + classID))
	if err != nil {
		return nil, err
	}
	var reg Registration
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &reg)
	}); err != nil {
		return nil, err
	}
	return &reg, nil
}

func hasPrefix(txn *badger.Txn, prefix string) bool {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}
