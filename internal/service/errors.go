package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPayload marks a request whose overall shape is wrong: bad JSON,
// a JSON value that is neither an object nor an array, a bad id or filter.
var ErrInvalidPayload = errors.New("invalid payload")

// requiredFieldsReason is the rejection text for records missing the key set.
const requiredFieldsReason = "required fields: companyId (string), storeId (integer), orderId (integer), skuId (string), produced (number)"

// ValidationError rejects one record
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StorageError wraps a failed store call
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// BulkAbortError stops a bulk ingestion at the record whose write failed.
// Rows written before Index stay written.
type BulkAbortError struct {
	Index  int
	Result BulkResult
	Err    error
}

func (e *BulkAbortError) Error() string {
	return fmt.Sprintf("bulk upsert aborted at index %d: %v", e.Index, e.Err)
}

func (e *BulkAbortError) Unwrap() error {
	return e.Err
}

// MissingParamsError is returned before any upstream call when the BI date
// range is incomplete.
type MissingParamsError struct {
	Missing []string
}

func (e *MissingParamsError) Error() string {
	return "missing required parameters: " + strings.Join(e.Missing, ", ")
}

// ConfigError reports proxy configuration that makes a call impossible.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// UpstreamError reports that the BI API could not be reached or read.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
