// Package services contains the server-side business logic: the registration
// and invoicing workflow, authentication and user administration, invoiced
// exports and historical CSV imports.
package services

import (
	"errors"
	"fmt"

	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/server/auth"
)

// storeError passes domain sentinels through and tags anything else as a
// store failure.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorAlreadyExists) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrorStore, err)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

func requireSession(sess auth.SessionContext) error {
	if !sess.Authenticated() {
		return common.ErrorUnauthorized
	}
	return nil
}

func requireApproved(sess auth.SessionContext) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if !sess.IsApproved {
		return fmt.Errorf("%w: account not approved", common.ErrorForbidden)
	}
	return nil
}

func requireAdmin(sess auth.SessionContext) error {
	if err := requireApproved(sess); err != nil {
		return err
	}
	if !sess.IsAdmin {
		return fmt.Errorf("%w: admin access required", common.ErrorForbidden)
	}
	return nil
}
