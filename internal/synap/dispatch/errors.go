// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import "synap/internal/synap/errs"

// errorResponse flattens err into the wire error shape. Errors that
// aren't an *errs.Error (a handler's own bug, a nil map panic recovered
// elsewhere) surface as INTERNAL_ERROR rather than leaking a Go error
// string shape external callers can't rely on.
func errorResponse(requestID string, err error) Response {
	return Response{
		Success:   false,
		RequestID: requestID,
		Error: &Error{
			Code:    string(errs.CodeOf(err)),
			Message: err.Error(),
		},
	}
}

func errorResponseCode(requestID string, code errs.Code, format string, args ...any) Response {
	return errorResponse(requestID, errs.New(code, format, args...))
}
