package session

import (
	"bufio"
	"context"
	"io"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/ironspire/coreserver/protocol"
	"github.com/ironspire/coreserver/server"
)

// RunJS5 drives one JS5 cache-streaming connection to completion: a reader
// goroutine decodes requests off the socket into urgent/normal queues (and
// a one-slot encryption-key channel), a writer goroutine serves and writes
// responses with urgent requests given priority, both grounded on
// original_source/net/src/connection.rs's reader_task/writer_task pair and
// its `tokio::select! { biased; ... }` writer loop.
func RunJS5(ctx context.Context, r *bufio.Reader, w *bufio.Writer, svc *FileService, bufferSize int) error {
	urgentCh := make(chan protocol.JS5FileRequest, bufferSize)
	normalCh := make(chan protocol.JS5FileRequest, bufferSize)
	keyCh := make(chan uint8, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(urgentCh)
		defer close(normalCh)
		defer close(keyCh)
		return js5ReaderTask(ctx, r, urgentCh, normalCh, keyCh)
	})
	g.Go(func() error {
		return js5WriterTask(ctx, w, urgentCh, normalCh, keyCh, svc)
	})

	return g.Wait()
}

func js5ReaderTask(ctx context.Context, r *bufio.Reader, urgentCh, normalCh chan<- protocol.JS5FileRequest, keyCh chan<- uint8) error {
	for {
		opcode, err := r.ReadByte()
		if err != nil {
			if isExpectedDisconnect(err) {
				return nil
			}
			return err
		}

		var body [3]byte
		if _, err := io.ReadFull(r, body[:]); err != nil {
			if isExpectedDisconnect(err) {
				return nil
			}
			return err
		}

		frame, err := protocol.ParseJS5Frame(opcode, body)
		if err != nil {
			return err
		}

		switch {
		case frame.FileRequest != nil:
			target := normalCh
			if frame.FileRequest.Urgent {
				target = urgentCh
			}
			select {
			case target <- *frame.FileRequest:
			case <-ctx.Done():
				return nil
			}

		case frame.EncryptionKey != nil:
			select {
			case keyCh <- *frame.EncryptionKey:
			default:
			}

		default:
			klog.V(4).Infof("js5 state change: %s", protocol.StateChangeName[frame.StateChange])
		}
	}
}

func js5WriterTask(ctx context.Context, w *bufio.Writer, urgentCh, normalCh <-chan protocol.JS5FileRequest, keyCh <-chan uint8, svc *FileService) error {
	var xorKey uint8

	for {
		if urgentCh == nil && normalCh == nil && keyCh == nil {
			return w.Flush()
		}

		select {
		case key, ok := <-keyCh:
			if !ok {
				keyCh = nil
				continue
			}
			xorKey = key
			continue
		default:
		}

		select {
		case req, ok := <-urgentCh:
			if !ok {
				urgentCh = nil
				continue
			}
			server.JS5QueueDepth.WithLabelValues("urgent").Set(float64(len(urgentCh)))
			if err := js5ServeAndWrite(w, svc, req, xorKey); err != nil {
				return err
			}
			continue
		default:
		}

		select {
		case key, ok := <-keyCh:
			if !ok {
				keyCh = nil
				continue
			}
			xorKey = key

		case req, ok := <-urgentCh:
			if !ok {
				urgentCh = nil
				continue
			}
			server.JS5QueueDepth.WithLabelValues("urgent").Set(float64(len(urgentCh)))
			if err := js5ServeAndWrite(w, svc, req, xorKey); err != nil {
				return err
			}

		case req, ok := <-normalCh:
			if !ok {
				normalCh = nil
				continue
			}
			server.JS5QueueDepth.WithLabelValues("normal").Set(float64(len(normalCh)))
			if err := js5ServeAndWrite(w, svc, req, xorKey); err != nil {
				return err
			}

		case <-ctx.Done():
			_ = w.Flush()
			return nil
		}
	}
}

func js5ServeAndWrite(w *bufio.Writer, svc *FileService, req protocol.JS5FileRequest, xorKey uint8) error {
	response, err := svc.Serve(req)
	if err != nil {
		klog.V(4).Infof("js5 serve %v/%v failed: %v", req.Index, req.Archive, err)
		return nil
	}

	encoded := protocol.XorEncode(response, xorKey)
	if _, err := w.Write(encoded); err != nil {
		return err
	}
	return w.Flush()
}
