/*
Package channel provides an unbounded FIFO queue for handing work between goroutines.

Go's built-in channels have a fixed capacity, so a producer blocks once the buffer
fills. Queue removes that limit: Send appends to a growable ring buffer and never
blocks, while Receive parks the caller until a value arrives or the queue is closed.

Basic usage:

	q := channel.New[func()]()

	go func() {
		for {
			job, err := q.Receive()
			if err != nil {
				return // closed and drained
			}
			job()
		}
	}()

	q.Send(func() { fmt.Println("hello") })
	q.Close()

Delivery Guarantees:

  - Values are delivered in the order they were accepted by Send.
  - Each value is delivered to exactly one receiver, even with many concurrent receivers.
  - After Close, Send returns ErrChannelClosed; receivers keep draining queued values
    and only observe ErrChannelClosed once the queue is empty.

Locking:

A single mutex guards the buffer. Receivers hold it only for the pull itself, so
work done with a received value never serializes other receivers.
*/
package channel
