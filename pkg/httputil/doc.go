// Package httputil provides the JSON conventions of the patternmark HTTP
// surface.
//
// # Responses
//
// [WriteJSON] encodes a value with the given status. [WriteError] renders
// any error as
//
//	{"code": "UNKNOWN_ANNOTATION", "message": "annotation ann_x not found"}
//
// with the status chosen by [StatusCode] from the error's code. Errors
// without a code are reported as INTERNAL_ERROR and their text is not
// exposed.
//
// # Requests
//
// [DecodeJSON] reads a bounded request body into a value and rejects
// unknown fields:
//
//	var req createRequest
//	if err := httputil.DecodeJSON(r, &req); err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
package httputil
