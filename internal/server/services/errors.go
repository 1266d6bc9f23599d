package services

import (
	"errors"
	"fmt"
)

// Kind groups business error codes. Handlers pick HTTP statuses by kind or
// by code, depending on the endpoint.
type Kind int

const (
	KindAuth Kind = iota + 1
	KindData
	KindLogin
	KindPassword
	KindVineyard
	KindEmail
	KindHub
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindData:
		return "data"
	case KindLogin:
		return "login"
	case KindPassword:
		return "password"
	case KindVineyard:
		return "vineyard"
	case KindEmail:
		return "email"
	case KindHub:
		return "hub"
	default:
		return "unknown"
	}
}

// Error codes returned to clients in {"errors": {code: message}}.
const (
	CodeUnknown = "unknown"

	CodeAuthNoToken  = "auth_error_no_token"
	CodeAuthNotFound = "auth_error_not_found"
	CodeAuthDisabled = "auth_error_disabled"
	CodeAuthExpired  = "auth_error_expired"
	CodeAuthUnknown  = "auth_error_unknown"
	CodeAdminInvalid = "admin_invalid"

	CodeLoginError   = "login_error"
	CodeLoginUnknown = "login_unknown"

	CodeUsernameInvalid  = "username_invalid"
	CodeUsernameTaken    = "username_taken"
	CodeUsernameNotFound = "username_not_found"
	CodeUserIDInvalid    = "user_id_invalid"
	CodeSubDateInvalid   = "sub_date_invalid"

	CodeResetUsername = "reset_error_username"
	CodeResetPassword = "reset_error_password"

	CodeEmailInvalid       = "email_bad_error"
	CodeEmailError         = "email_error"
	CodeChangeEmailUnknown = "change_email_unknown"

	CodeVineyardNoID          = "vineyard_no_id"
	CodeVineyardBadID         = "vineyard_bad_id"
	CodeVineyardIDInvalid     = "vineyard_id_invalid"
	CodeVineyardNotFound      = "vineyard_id_not_found"
	CodeVineyardNameInvalid   = "vineyard_name_invalid"
	CodeVineyardCoordsInvalid = "vineyard_coordinates_invalid"
	CodeVineyardOwnerInvalid  = "vineyard_owner_invalid"
	CodeVineyardUnauthorized  = "vineyard_unauthorized"
	CodeVineyardUnknown       = "vineyard_unknown"

	CodeNodeIDInvalid      = "node_id_invalid"
	CodeEnvVariableInvalid = "env_variable_invalid"
	CodeEnvKeyInvalid      = "env_key_invalid"
	CodeEnvDataInvalid     = "env_data_invalid"
	CodeEnvDataUnknown     = "env_data_unknown"
)

var messages = map[string]string{
	CodeUnknown: "An unknown error occurred.",

	CodeAuthNoToken:  "No authentication token was provided.",
	CodeAuthNotFound: "Authentication token is not valid.",
	CodeAuthDisabled: "This account has been disabled.",
	CodeAuthExpired:  "The subscription for this account has expired.",
	CodeAuthUnknown:  "Authentication could not be completed.",
	CodeAdminInvalid: "Administrator credentials are not valid.",

	CodeLoginError:   "Username or password is incorrect.",
	CodeLoginUnknown: "Login could not be completed.",

	CodeUsernameInvalid:  "Username must contain only letters and digits.",
	CodeUsernameTaken:    "Username is already in use.",
	CodeUsernameNotFound: "User does not exist.",
	CodeUserIDInvalid:    "User id must be a unique non-negative integer.",
	CodeSubDateInvalid:   "Subscription end date must be a YYYY-MM-DD date that is not in the past.",

	CodeResetUsername: "A username is required to reset a password.",
	CodeResetPassword: "New password is not valid.",

	CodeEmailInvalid:       "Email address is not valid.",
	CodeEmailError:         "Email could not be sent.",
	CodeChangeEmailUnknown: "Email address could not be changed.",

	CodeVineyardNoID:          "No vineyard id was provided.",
	CodeVineyardBadID:         "Vineyard id must be a non-negative integer.",
	CodeVineyardIDInvalid:     "Vineyard id must be a unique non-negative integer.",
	CodeVineyardNotFound:      "Vineyard does not exist.",
	CodeVineyardNameInvalid:   "Vineyard name is required.",
	CodeVineyardCoordsInvalid: "Vineyard coordinates are out of range.",
	CodeVineyardOwnerInvalid:  "Vineyard owner does not exist.",
	CodeVineyardUnauthorized:  "Not authorized for this vineyard.",
	CodeVineyardUnknown:       "Vineyard data could not be retrieved.",

	CodeNodeIDInvalid:      "Node id must be a unique non-negative integer.",
	CodeEnvVariableInvalid: "Environmental variable must be temperature, humidity or leafwetness.",
	CodeEnvKeyInvalid:      "Hub key is not valid.",
	CodeEnvDataInvalid:     "Hub data is missing required fields.",
	CodeEnvDataUnknown:     "Environmental data could not be retrieved.",
}

// Message returns the client-facing message for a registered code.
func Message(code string) (string, bool) {
	msg, ok := messages[code]
	return msg, ok
}

// Error is an expected business failure. Anything that is not an *Error is
// treated as internal by the HTTP layer.
type Error struct {
	Kind Kind
	Code string
	// Err is the underlying cause, logged server side only.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrAuthNoToken  = newError(KindAuth, CodeAuthNoToken)
	ErrAuthNotFound = newError(KindAuth, CodeAuthNotFound)
	ErrAuthDisabled = newError(KindAuth, CodeAuthDisabled)
	ErrAuthExpired  = newError(KindAuth, CodeAuthExpired)
	ErrAdminInvalid = newError(KindAuth, CodeAdminInvalid)

	ErrLoginError = newError(KindLogin, CodeLoginError)

	ErrUsernameInvalid  = newError(KindData, CodeUsernameInvalid)
	ErrUsernameTaken    = newError(KindData, CodeUsernameTaken)
	ErrUsernameNotFound = newError(KindData, CodeUsernameNotFound)
	ErrUserIDInvalid    = newError(KindData, CodeUserIDInvalid)
	ErrSubDateInvalid   = newError(KindData, CodeSubDateInvalid)

	ErrResetUsername = newError(KindPassword, CodeResetUsername)
	ErrResetPassword = newError(KindPassword, CodeResetPassword)

	ErrEmailInvalid = newError(KindEmail, CodeEmailInvalid)

	ErrVineyardNoID          = newError(KindVineyard, CodeVineyardNoID)
	ErrVineyardBadID         = newError(KindVineyard, CodeVineyardBadID)
	ErrVineyardIDInvalid     = newError(KindVineyard, CodeVineyardIDInvalid)
	ErrVineyardNotFound      = newError(KindVineyard, CodeVineyardNotFound)
	ErrVineyardNameInvalid   = newError(KindVineyard, CodeVineyardNameInvalid)
	ErrVineyardCoordsInvalid = newError(KindVineyard, CodeVineyardCoordsInvalid)
	ErrVineyardOwnerInvalid  = newError(KindVineyard, CodeVineyardOwnerInvalid)
	ErrVineyardUnauthorized  = newError(KindAuth, CodeVineyardUnauthorized)

	ErrNodeIDInvalid      = newError(KindData, CodeNodeIDInvalid)
	ErrEnvVariableInvalid = newError(KindData, CodeEnvVariableInvalid)
	ErrEnvKeyInvalid      = newError(KindHub, CodeEnvKeyInvalid)
	ErrEnvDataInvalid     = newError(KindHub, CodeEnvDataInvalid)
)

// wrapError attaches a cause to a business code.
func wrapError(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// AsError extracts the business error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
