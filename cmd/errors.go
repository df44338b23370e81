package cmd

import (
	"errors"

	"github.com/marcus/onboard/internal/output"
	"github.com/marcus/onboard/internal/store"
	"github.com/marcus/onboard/internal/syncclient"
	"github.com/spf13/cobra"
)

// errorCode classifies err for structured output.
func errorCode(err error) string {
	var statusErr *syncclient.StatusError
	switch {
	case errors.Is(err, store.ErrUnknownItem), errors.Is(err, store.ErrUnknownFlag):
		return output.ErrCodeNotFound
	case errors.Is(err, store.ErrInvalidName):
		return output.ErrCodeInvalidInput
	case errors.Is(err, store.ErrLocked):
		return output.ErrCodeLocked
	case errors.Is(err, store.ErrOffline), errors.Is(err, store.ErrNoRemote),
		errors.Is(err, store.ErrNotHydrated), errors.As(err, &statusErr):
		return output.ErrCodeSync
	case errors.Is(err, store.ErrClosed):
		return output.ErrCodeDatabase
	}
	return output.ErrCodeInternal
}

// reportError prints err as JSON when the failing command was asked for
// JSON output, styled text otherwise.
func reportError(cmd *cobra.Command, err error) {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
			output.JSONError(errorCode(err), err.Error())
			return
		}
	}
	output.Error("%v", err)
}
