package integrity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/store"
)

// identityColumns are the user columns whose uniqueness failures are reported
// as validation errors on the field, the way registration presents them.
var identityColumns = map[string]string{
	"email": "is already registered",
	"phone": "is already registered",
}

// FromStoreError maps a store error onto the apperr taxonomy.
//
//   - *apperr.Error passes through unchanged
//   - store.ErrNotFound becomes NotFound(entity, id)
//   - UNIQUE becomes Conflict, except users.email and users.phone which
//     become Validation on that field
//   - FOREIGN KEY becomes NotFound: the referenced row is absent
//   - CHECK, NOT NULL and TRIGGER failures become Validation
//
// Any other error is returned wrapped and surfaces as INTERNAL.
func FromStoreError(entity, id string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(entity, id)
	}

	ce, ok := store.AsConstraint(err)
	if !ok {
		return fmt.Errorf("%s: %w", entity, err)
	}
	field := strings.Join(ce.Columns, ",")

	var out *apperr.Error
	switch ce.Kind {
	case store.ConstraintUnique:
		if msg, ok := identityColumns[field]; ok && ce.Table == "users" {
			out = apperr.Validation("user", field, msg)
		} else {
			out = apperr.Conflict(entity, field, "already exists")
		}
	case store.ConstraintForeignKey:
		out = &apperr.Error{Kind: apperr.KindNotFound, Entity: entity, ID: id, Message: "referenced entity does not exist"}
	case store.ConstraintTrigger:
		out = apperr.Validation(entity, field, ce.Detail)
	case store.ConstraintNotNull:
		out = apperr.Validation(entity, field, "is required")
	default:
		out = apperr.Validation(entity, field, "is out of range")
	}
	out.Err = err
	return out
}
