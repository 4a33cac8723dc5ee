package chain

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type mockDataError struct {
	data any
	msg  string
}

func (m *mockDataError) Error() string {
	return m.msg
}

func (m *mockDataError) ErrorData() any {
	return m.data
}

func TestIsTooManyResultsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantMatch bool
		wantData  string
	}{
		{name: "nil error"},
		{name: "plain error", err: errors.New("some other error")},
		{
			name:     "data error with unrelated payload",
			err:      &mockDataError{data: "execution reverted", msg: "execution reverted"},
			wantData: "execution reverted",
		},
		{
			name: "data error with result cap payload",
			err: &mockDataError{
				data: "Query returned more than 10000 results. Try with this block range [0x7dfd25, 0x7e0fcc].",
				msg:  "query returned more than 10000 results",
			},
			wantMatch: true,
			wantData:  "Query returned more than 10000 results. Try with this block range [0x7dfd25, 0x7e0fcc].",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotMatch, gotData := IsTooManyResultsError(tt.err)
			require.Equal(t, tt.wantMatch, gotMatch)
			require.Equal(t, tt.wantData, gotData)
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "nil", err: nil, want: ClassUnknown},
		{name: "canceled", err: fmt.Errorf("filter: %w", context.Canceled), want: ClassCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: ClassTransient},
		{name: "alchemy cap", err: errors.New("Log response size exceeded. You can make eth_getLogs requests with up to a 2K block range"), want: ClassOverflow},
		{name: "geth cap", err: errors.New("query returned more than 10000 results"), want: ClassOverflow},
		{name: "range cap", err: errors.New("exceed maximum block range: 5000"), want: ClassOverflow},
		{name: "http 413", err: rpc.HTTPError{StatusCode: 413, Status: "413 Request Entity Too Large"}, want: ClassOverflow},
		{name: "http 429", err: rpc.HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}, want: ClassTransient},
		{name: "conn reset", err: fmt.Errorf("post: %w", syscall.ECONNRESET), want: ClassTransient},
		{name: "gateway", err: errors.New("502 Bad Gateway"), want: ClassTransient},
		{name: "revert", err: errors.New("execution reverted"), want: ClassUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorClassString(t *testing.T) {
	require.Equal(t, "overflow", ClassOverflow.String())
	require.Equal(t, "transient", ClassTransient.String())
	require.Equal(t, "canceled", ClassCanceled.String())
	require.Equal(t, "unknown", ClassUnknown.String())
}
