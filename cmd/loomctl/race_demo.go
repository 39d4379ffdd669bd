package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/loomrt/loom"
)

type echoPayload struct {
	Message string `msgpack:"message"`
	Seq     int    `msgpack:"seq"`
}

var raceDemoCmd = &cobra.Command{
	Use:   "race-demo",
	Short: "Race a msgpack echo round-trip against a timeout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		result, err := loom.Run(ctx, func(ctx context.Context, task *loom.Task) (any, error) {
			return loom.Timeout(ctx, loom.Func(echoRoundTrip), 2.0)
		})
		if err != nil {
			fmt.Println(errColor.Sprintf("race-demo failed: %v", err))
			return err
		}

		payload := result.(*echoPayload)
		fmt.Println(doneColor.Sprintf("echoed: %+v", *payload))
		return nil
	},
}

// echoRoundTrip marshals a payload with msgpack, writes it through a
// pipe's write end with loom.Write, closes the write end to signal
// EOF, and reads it back with loom.ReadAll, exercising the chunked
// write/read path with a real non-text wire format.
func echoRoundTrip(ctx context.Context, task *loom.Task) (any, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	encoded, err := msgpack.Marshal(&echoPayload{Message: "ping", Seq: 1})
	if err != nil {
		return nil, err
	}

	if err := task.Write(loom.Stream(w.Fd()), encoded); err != nil {
		return nil, err
	}
	// loom.Write leaves a successfully-drained stream open; close the
	// write end ourselves so the reader observes EOF.
	_ = w.Close()

	body, err := task.ReadAll(loom.Stream(r.Fd()), len(encoded)+64)
	if err != nil {
		return nil, err
	}

	var out echoPayload
	if err := msgpack.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
