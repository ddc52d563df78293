// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package provider holds the error classes shared by all upstream data providers.
package provider

import "errors"

var (
	// ErrUpstreamUnavailable indicates that a provider could not be reached, answered with a
	// non-2xx status code, timed out or sent a response that could not be parsed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrEmptyResponse indicates a well-formed response that does not carry any usable data.
	ErrEmptyResponse = errors.New("empty upstream response")
)
