/*
 * Patch Panel - A software patch panel for OpenFlow switches
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 *  Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package patch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("layer conflict")
	ErrMalformed     = errors.New("malformed patch")
)

// LayerConflictError is returned when a new patch conflicts with a stored one.
type LayerConflictError struct {
	Existing Spec
}

func (r *LayerConflictError) Error() string {
	return fmt.Sprintf("layer conflict: stored %v", r.Existing)
}

// Is makes errors.Is(err, ErrConflict) true.
func (r *LayerConflictError) Is(target error) bool {
	return target == ErrConflict
}
