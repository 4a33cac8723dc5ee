package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrorClass is the coarse classification of a provider failure.
type ErrorClass int

const (
	// ClassUnknown is any failure that cannot be attributed to a cause.
	ClassUnknown ErrorClass = iota
	// ClassOverflow means the provider refused the query for exceeding its result cap.
	ClassOverflow
	// ClassTransient covers network, timeout, rate limit and gateway failures.
	ClassTransient
	// ClassCanceled means the caller's context ended.
	ClassCanceled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassOverflow:
		return "overflow"
	case ClassTransient:
		return "transient"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result-cap messages observed across providers (geth, erigon, alchemy, infura, quicknode, ankr).
var overflowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)query returned more than \d+ results`),
	regexp.MustCompile(`(?i)log response size exceeded`),
	regexp.MustCompile(`(?i)response size (is larger than|exceeded|should not greater than)`),
	regexp.MustCompile(`(?i)too many results`),
	regexp.MustCompile(`(?i)block range (is too wide|too large|exceeds)`),
	regexp.MustCompile(`(?i)exceed(s|ed)? (the )?max(imum)? block range`),
	regexp.MustCompile(`(?i)limit exceeded.*logs`),
}

// Classify inspects a provider error and reports its most likely cause.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}
	if ok, _ := IsTooManyResultsError(err); ok {
		return ClassOverflow
	}
	if matchesOverflow(err.Error()) {
		return ClassOverflow
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusRequestEntityTooLarge:
			return ClassOverflow
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return ClassTransient
		}
	}

	if retryableError(err) {
		return ClassTransient
	}
	return ClassUnknown
}

// IsTooManyResultsError checks for an RPC DataError whose payload reports a result-cap overflow.
func IsTooManyResultsError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		errData := fmt.Sprintf("%v", dataErr.ErrorData())
		return matchesOverflow(errData), errData
	}

	return false, ""
}

func matchesOverflow(msg string) bool {
	for _, re := range overflowPatterns {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

func retryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, needle := range []string{
		"timeout",
		"deadline exceeded",
		"429",
		"too many requests",
		"rate limit",
		"502",
		"503",
		"504",
		"bad gateway",
		"service unavailable",
		"connection reset",
		"eof",
	} {
		if strings.Contains(errStr, needle) {
			return true
		}
	}
	return false
}
