// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/docdocgo-cli/internal/backend"
	"github.com/jeranaias/docdocgo-cli/internal/model"
)

// applyInstructionsLocked processes a reply's instructions in order. Each
// violation is collected and processing continues; the joined error is nil
// when every instruction applied cleanly. Callers must hold c.mu.
func (c *Controller) applyInstructionsLocked(resp *backend.ChatResponse) error {
	var errs []error
	for i, in := range resp.Instructions {
		switch in.Type {
		case model.InstructionCacheAccessCode:
			if err := c.cacheAccessCodeLocked(in, resp.CollectionName); err != nil {
				errs = append(errs, fmt.Errorf("instruction %d: %w", i, err))
			}
		case model.InstructionShowUploader:
			// Presentation only.
		default:
			c.logger.Debug("ignoring unknown instruction", zap.String("type", string(in.Type)))
		}
	}
	return errors.Join(errs...)
}

// cacheAccessCodeLocked stores the code under the backend's user id and the
// reply's collection, then checks the backend's id against the local one.
func (c *Controller) cacheAccessCodeLocked(in model.Instruction, collection string) error {
	if in.UserID == nil || in.AccessCode == nil {
		return fmt.Errorf("%w: %s without user_id or access_code", ErrProtocol, in.Type)
	}
	if collection == "" {
		return fmt.Errorf("%w: %s on a reply without collection_name", ErrProtocol, in.Type)
	}

	c.codes.Put(*in.UserID, collection, *in.AccessCode)
	c.logger.Info("cached access code", zap.String("collection", collection))

	if !c.hasUserID || *in.UserID != c.userID {
		return &UserIDMismatchError{Local: c.userID, Remote: *in.UserID}
	}
	return nil
}
