package session

import (
	"bufio"
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ironspire/coreserver/gamecipher"
	"github.com/ironspire/coreserver/protocol"
)

// RunGame pumps one authenticated game channel until either direction
// fails or ctx is cancelled: a reader goroutine decodes inbound frames and
// forwards them to inbox (blocking on a full queue rather than dropping
// messages), a writer goroutine drains outbound and writes encoded frames
// to the socket. Grounded on
// original_source/game/src/player/connection.rs's Connection (the
// inbox/outbound mpsc pair) and player.rs's send path, generalized from
// its single send-only example into the two-directional pump the game
// layer needs.
func RunGame(ctx context.Context, r *bufio.Reader, w *bufio.Writer, cipher gamecipher.Pair, inbox chan<- protocol.GameMessage, outbound <-chan protocol.GameMessage) error {
	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() error {
		// The reader ending, including on a quiet client disconnect, stops
		// the writer as well.
		defer cancel()
		return gameReaderTask(ctx, r, cipher, inbox)
	})
	g.Go(func() error {
		return gameWriterTask(ctx, w, cipher, outbound)
	})

	return g.Wait()
}

func gameReaderTask(ctx context.Context, r *bufio.Reader, cipher gamecipher.Pair, inbox chan<- protocol.GameMessage) error {
	decoder := protocol.NewGameDecoder(r, cipher.In)

	for {
		msg, err := decoder.ReadMessage()
		if err != nil {
			if isExpectedDisconnect(err) {
				return nil
			}
			return err
		}

		select {
		case inbox <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

func gameWriterTask(ctx context.Context, w *bufio.Writer, cipher gamecipher.Pair, outbound <-chan protocol.GameMessage) error {
	encoder := protocol.NewGameEncoder(cipher.Out)

	for {
		select {
		case msg, ok := <-outbound:
			if !ok {
				return w.Flush()
			}
			if _, err := w.Write(encoder.Encode(msg)); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}

		case <-ctx.Done():
			_ = w.Flush()
			return nil
		}
	}
}
