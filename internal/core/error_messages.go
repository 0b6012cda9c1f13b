package core

// error_messages.go maps technical errors to user-facing messages.
//
// # Error Codes Reference
//
// # Dataset Errors (CSV001-CSV099)
//
//	CSV001 - Parse failure: A line could not be read
//	CSV002 - Conversion failure: A row did not have the expected shape
//	CSV003 - File not found
//	CSV004 - No dataset loaded
//	CSV005 - Path outside the data directory
//	CSV006 - Unsupported file format
//	CSV007 - File too large
//	CSV008 - Too many concurrent loads
//	CSV009 - No file path given
//
// # Search Errors (SRCH001-SRCH099)
//
//	SRCH001 - Column index out of range
//	SRCH002 - Row width does not match the header
//	SRCH003 - Column name used without a header
//	SRCH004 - Malformed search parameters
//
// # Map Errors (GEO001-GEO099)
//
//	GEO001 - Invalid bounding box
//	GEO002 - Missing area keyword
//	GEO003 - Map data unavailable
//
// # Census Errors (CEN001-CEN099)
//
//	CEN001 - Missing state or county
//	CEN002 - Unknown state
//	CEN003 - Unknown county
//	CEN004 - Census API unavailable
//
// # Request Errors
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timed out ("context deadline exceeded")
//	RATE001 - Rate limited ("rate limit")
//	ERR000 - Anything else; check the logs for the technical error
//
// Typed errors are matched first with errors.Is / errors.As. The remaining
// patterns are matched case-insensitively against the error text and the
// first match wins.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/csvmaps/internal/census"
	"github.com/JonMunkholm/csvmaps/internal/csvdata"
	"github.com/JonMunkholm/csvmaps/internal/dataset"
	"github.com/JonMunkholm/csvmaps/internal/geo"
	"github.com/JonMunkholm/csvmaps/internal/search"
)

// ErrorKind classifies an error for transports.
type ErrorKind string

const (
	KindBadRequest  ErrorKind = "error_bad_request"
	KindNotFound    ErrorKind = "error_not_loaded"
	KindBadData     ErrorKind = "error_bad_json"
	KindDatasource  ErrorKind = "error_datasource"
	KindRateLimited ErrorKind = "error_rate_limited"
	KindInternal    ErrorKind = "error_internal"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string    // What happened
	Action  string    // What to do about it
	Code    string    // Support reference
	Kind    ErrorKind // Error class
}

// ErrInvalidQuery marks malformed request parameters.
var ErrInvalidQuery = errors.New("invalid query")

// ErrMapsUnavailable is returned when no map data was loaded at startup.
var ErrMapsUnavailable = errors.New("map data unavailable")

// ErrCensusUnavailable is returned when no census source is configured.
var ErrCensusUnavailable = errors.New("census lookups are disabled")

type errorMatcher struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// typedMatchers run before the text patterns. Order matters: a
// ConversionError is always wrapped in a ParseError.
var typedMatchers = []errorMatcher{
	{as[*csvdata.ConversionError](), UserMessage{
		Message: "A row in the file does not have the expected shape",
		Action:  "Check the reported line for missing or extra fields",
		Code:    "CSV002", Kind: KindBadData,
	}},
	{as[*csvdata.ParseError](), UserMessage{
		Message: "The file could not be read",
		Action:  "Make sure the file is readable plain text",
		Code:    "CSV001", Kind: KindDatasource,
	}},
	{is(os.ErrNotExist), UserMessage{
		Message: "File not found",
		Action:  "Check the file path and try again",
		Code:    "CSV003", Kind: KindDatasource,
	}},
	{is(dataset.ErrNotLoaded), UserMessage{
		Message: "No dataset has been loaded",
		Action:  "Load a file with /load?filepath=... first",
		Code:    "CSV004", Kind: KindNotFound,
	}},
	{is(dataset.ErrOutsideDataRoot), UserMessage{
		Message: "The file is outside the data directory",
		Action:  "Use a path relative to the data directory",
		Code:    "CSV005", Kind: KindBadRequest,
	}},
	{is(dataset.ErrUnsupportedFormat), UserMessage{
		Message: "Unsupported file format",
		Action:  "Load a .csv or .xlsx file",
		Code:    "CSV006", Kind: KindBadRequest,
	}},
	{is(dataset.ErrFileTooLarge), UserMessage{
		Message: "File exceeds the maximum size",
		Action:  "Split the file into smaller files",
		Code:    "CSV007", Kind: KindBadRequest,
	}},
	{is(dataset.ErrTooManyLoads), UserMessage{
		Message: "The server is busy loading other files",
		Action:  "Please wait a moment and try again",
		Code:    "CSV008", Kind: KindRateLimited,
	}},
	{is(dataset.ErrEmptyPath), UserMessage{
		Message: "No file path was given",
		Action:  "Pass the file with ?filepath=",
		Code:    "CSV009", Kind: KindBadRequest,
	}},
	{is(search.ErrIndexOutOfRange), UserMessage{
		Message: "The column index is past the end of a row",
		Action:  "Use an index smaller than the number of columns",
		Code:    "SRCH001", Kind: KindBadData,
	}},
	{is(search.ErrRowWidthMismatch), UserMessage{
		Message: "A row has a different number of fields than the header",
		Action:  "Fix the file or search without header=true",
		Code:    "SRCH002", Kind: KindBadData,
	}},
	{is(search.ErrHeaderRequired), UserMessage{
		Message: "Searching by column name needs a header row",
		Action:  "Add header=true or search by index",
		Code:    "SRCH003", Kind: KindBadRequest,
	}},
	{is(ErrInvalidQuery), UserMessage{
		Message: "The search parameters are invalid",
		Action:  "Pass target, and at most one of index or name",
		Code:    "SRCH004", Kind: KindBadRequest,
	}},
	{is(geo.ErrInvalidBoundingBox), UserMessage{
		Message: "The bounding box is invalid",
		Action:  "Give numeric bounds with lower values not above upper values",
		Code:    "GEO001", Kind: KindBadRequest,
	}},
	{is(geo.ErrEmptyKeyword), UserMessage{
		Message: "No area keyword was given",
		Action:  "Pass a keyword with ?Area=",
		Code:    "GEO002", Kind: KindBadRequest,
	}},
	{is(ErrMapsUnavailable), UserMessage{
		Message: "Map data is not available",
		Action:  "Configure MAPS_FILE and restart the server",
		Code:    "GEO003", Kind: KindDatasource,
	}},
	{is(census.ErrMissingLocation), UserMessage{
		Message: "Both a state and a county are required",
		Action:  "Pass ?state=...&county=...",
		Code:    "CEN001", Kind: KindBadRequest,
	}},
	{is(census.ErrUnknownState), UserMessage{
		Message: "Unknown state",
		Action:  "Use the full state name, e.g. Rhode Island",
		Code:    "CEN002", Kind: KindBadRequest,
	}},
	{is(census.ErrUnknownCounty), UserMessage{
		Message: "No county in that state matches",
		Action:  "Check the county spelling",
		Code:    "CEN003", Kind: KindBadRequest,
	}},
	{as[*census.DatasourceError](), UserMessage{
		Message: "The census service is unavailable",
		Action:  "Please try again later",
		Code:    "CEN004", Kind: KindDatasource,
	}},
	{is(ErrCensusUnavailable), UserMessage{
		Message: "Census lookups are disabled",
		Action:  "Enable CENSUS_ENABLED and restart the server",
		Code:    "CEN004", Kind: KindDatasource,
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001", Kind: KindBadRequest,
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002", Kind: KindDatasource,
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001", Kind: KindRateLimited,
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Kind:    KindInternal,
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range typedMatchers {
		if m.match(err) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
