// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package tower

import (
	"errors"
	"fmt"
)

// Protocol and client errors. Failures returned by this package wrap one of
// these, so callers match them with errors.Is.
var (
	ErrGeneral            = errors.New("general error")
	ErrNotInitialized     = errors.New("tower client not initialized")
	ErrAlreadyInitialized = errors.New("tower client already initialized")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceOpenFailed   = errors.New("device open failed")
	ErrDeviceNotOpen      = errors.New("device not open")
	ErrWriteFailed        = errors.New("write failed")
	ErrReadFailed         = errors.New("read failed")
	ErrTimeout            = errors.New("response timeout")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrResponseFormat     = errors.New("invalid response format")
	ErrResponseChecksum   = errors.New("response checksum mismatch")
	ErrResponseNack       = errors.New("device returned NAK")
	ErrOutOfRange         = errors.New("value out of range")
)

// Code is a stable numeric error code, suitable for process exit status.
type Code int

const (
	CodeSuccess Code = iota
	CodeGeneral
	CodeNotInitialized
	CodeAlreadyInitialized
	CodeDeviceNotFound
	CodeDeviceOpenFailed
	CodeDeviceNotOpen
	CodeWriteFailed
	CodeReadFailed
	CodeTimeout
	CodeInvalidParameter
	CodeMemoryAllocation
	CodeResponseFormat
	CodeResponseChecksum
	CodeResponseNack
	CodeOutOfRange
)

var codeErrors = []struct {
	code Code
	err  error
}{
	{CodeNotInitialized, ErrNotInitialized},
	{CodeAlreadyInitialized, ErrAlreadyInitialized},
	{CodeDeviceNotFound, ErrDeviceNotFound},
	{CodeDeviceOpenFailed, ErrDeviceOpenFailed},
	{CodeDeviceNotOpen, ErrDeviceNotOpen},
	{CodeWriteFailed, ErrWriteFailed},
	{CodeReadFailed, ErrReadFailed},
	{CodeTimeout, ErrTimeout},
	{CodeInvalidParameter, ErrInvalidParameter},
	{CodeResponseFormat, ErrResponseFormat},
	{CodeResponseChecksum, ErrResponseChecksum},
	{CodeResponseNack, ErrResponseNack},
	{CodeOutOfRange, ErrOutOfRange},
}

// CodeOf maps an error to its Code. nil maps to CodeSuccess and errors that
// wrap none of this package's sentinels map to CodeGeneral.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeGeneral
}

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeGeneral:
		return ErrGeneral.Error()
	case CodeMemoryAllocation:
		return "memory allocation failed"
	}
	for _, ce := range codeErrors {
		if ce.code == c {
			return ce.err.Error()
		}
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// wrapf annotates a sentinel with formatted context.
func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
