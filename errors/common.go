package errors

import "fmt"

func EmptyParamErr(field string) error {
	ve := ValidationErrs()
	ve.Add(field, "cannot be empty")
	return E(Invalid, "validation failed", ve.Err())
}

// TxNotFoundErr reports a missing transaction by its reference id.
func TxNotFoundErr(refID string) error {
	return E(NotFound, fmt.Sprintf("transaction %s not found", refID), nil)
}

// UserNotFoundErr reports a missing user record.
func UserNotFoundErr(username string) error {
	return E(NotFound, fmt.Sprintf("user %s not found", username), nil)
}

// PersistenceErr wraps a record store failure for op.
func PersistenceErr(op string, err error) error {
	return E(Persistence, fmt.Sprintf("store %s failed", op), err)
}

// UpstreamErr wraps a provider transport or protocol failure, as
// opposed to a legitimate failed business status.
func UpstreamErr(provider string, err error) error {
	return E(Upstream, fmt.Sprintf("%s request failed", provider), err)
}
