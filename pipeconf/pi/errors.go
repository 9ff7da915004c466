/*
 * Copyright 2018-2023 Open Networking Foundation (ONF) and the ONF Contributors

 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at

 * http://www.apache.org/licenses/LICENSE-2.0

 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pi

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TranslationError is the error type of every failure raised while
// translating rules, treatments and packets against the pipeline.
// Callers match the sentinels below with errors.Is; a gRPC handler can return
// a (wrapped) TranslationError as is, it carries its own status code.
type TranslationError struct {
	code codes.Code
	msg  string
}

func newError(code codes.Code, msg string) *TranslationError {
	return &TranslationError{code: code, msg: msg}
}

func (e *TranslationError) Error() string {
	return e.msg
}

// Code returns the gRPC code reported for this error
func (e *TranslationError) Code() codes.Code {
	return e.code
}

// GRPCStatus lets status.FromError and status.Code see through wrapped translation errors
func (e *TranslationError) GRPCStatus() *status.Status {
	return status.New(e.code, e.msg)
}

var (
	ErrUnsupportedType      = newError(codes.Unimplemented, "unsupported-extension-type")
	ErrUnsupportedOutput    = newError(codes.Unimplemented, "unsupported-output-port")
	ErrUnsupportedTreatment = newError(codes.Unimplemented, "unsupported-treatment")
	ErrMissingField         = newError(codes.InvalidArgument, "missing-field")
	ErrMissingMetadata      = newError(codes.InvalidArgument, "missing-packet-metadata")
	ErrNullArgument         = newError(codes.InvalidArgument, "null-argument")
	ErrMalformedFrame       = newError(codes.InvalidArgument, "malformed-frame")
	ErrMalformedValue       = newError(codes.InvalidArgument, "malformed-value")
	ErrPortTooLarge         = newError(codes.OutOfRange, "port-too-large")
	ErrValueTooLarge        = newError(codes.OutOfRange, "value-too-large")
	ErrUnmappedTable        = newError(codes.NotFound, "unmapped-table")
	ErrUnknownEntity        = newError(codes.NotFound, "unknown-pipeline-entity")
	ErrInvalidRule          = newError(codes.InvalidArgument, "invalid-flow-rule")
	ErrUnsupportedMatch     = newError(codes.Unimplemented, "unsupported-match-field")
	ErrUnsupportedAction    = newError(codes.Unimplemented, "unsupported-flow-action")

	// ErrExtensionProperty is raised when an extension property cannot be read or written.
	// It is not fatal to treatment mapping: the offending instruction is skipped.
	ErrExtensionProperty = newError(codes.InvalidArgument, "extension-property-error")
)
