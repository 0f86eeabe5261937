/*
Package streaming holds the queues that feed hellopool workers.

  - channel: unbounded FIFO queue shared by many producers and consumers

Unlike a Go channel, a channel.Queue never blocks the sender, and closing it
still lets receivers drain everything sent before the close:

	q := channel.New[workerpool.Job]()
	_ = q.Send(job)
	_ = q.Close()

	for {
		job, err := q.Receive()
		if err != nil {
			break // closed and empty
		}
		job()
	}
*/
package streaming
