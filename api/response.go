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

package api

import (
	"net/http"

	"github.com/ant0ine/go-json-rest/rest"
)

/*
 * Status Codes:
 *
 * 200 = Okay.
 * 4xx = Client-side errors.
 * 5xx = Server-side errors.
 */
type Status int

const (
	StatusOkay = 200

	StatusInvalidParameter = 400
	StatusNotFound         = 404
	StatusDuplicated       = 409
	StatusLayerConflict    = 410

	StatusInternalServerError = 500
)

type Response struct {
	Status  Status      `json:"status"`
	Message string      `json:"message,omitempty"` // Human readable message related with the status code.
	Data    interface{} `json:"data,omitempty"`
}

// writeResponse writes resp with its status as the HTTP status code.
func writeResponse(w rest.ResponseWriter, resp Response) {
	if resp.Status != StatusOkay {
		w.WriteHeader(int(resp.Status))
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if err := w.WriteJson(resp); err != nil {
		logger.Errorf("failed to write a response: %v", err)
	}
}
